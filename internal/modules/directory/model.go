// README: User and shop registry records consumed by dispatch and claims.
package directory

import "scrapmate/internal/types"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

// Class distinguishes fixed scrap shops from mobile pickup vendors.
type Class string

const (
	ClassShop   Class = "shop"
	ClassMobile Class = "mobile"
)

type User struct {
	ID        types.ID
	Name      string
	Phone     string
	Role      Role
	Class     Class
	PushToken string
	// Location is the last profile coordinate, if the user shared one.
	// Read once at dispatch time; this is not live tracking.
	Location *types.Point
	Active   bool
}

type Shop struct {
	ID       types.ID
	OwnerID  types.ID
	Class    Class
	Location types.Point
	Active   bool
}

// PriceOverride is a vendor-specific per-kg rate for one material line,
// keyed by category and subcategory id.
type PriceOverride struct {
	ShopRef       types.ID
	CategoryID    string
	SubcategoryID string
	PricePerKg    int64
}

// OverrideKey is the lookup key used when repricing order lines at claim time.
func OverrideKey(categoryID, subcategoryID string) string {
	return categoryID + ":" + subcategoryID
}
