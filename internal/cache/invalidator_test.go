// README: Cache key namespace tests.
package cache

import "testing"

func TestKeyNamespaces(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{AvailableKey("v1"), "orders:available:v1"},
		{VendorKey("s1"), "orders:vendor:s1"},
		{CustomerKey("cust1"), "orders:customer:cust1"},
		{DetailKey("o1"), "orders:detail:o1"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("key = %q, want %q", tc.got, tc.want)
		}
	}
}
