// README: Best-effort push fan-out for order lifecycle events.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/order"
	"scrapmate/internal/types"
)

// Sender delivers one push message. Implementations may fail independently
// per recipient.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Tokens resolves recipients to push tokens and claim refs to their owners.
type Tokens interface {
	PushToken(ctx context.Context, id types.ID) (string, error)
	RefOwner(ctx context.Context, ref types.ID) (*directory.User, error)
}

// Service implements order.Notifier. Every failure is logged and swallowed:
// notification is advisory and must never roll back a state transition.
type Service struct {
	sender Sender
	dir    Tokens
}

func NewService(sender Sender, dir Tokens) *Service {
	return &Service{sender: sender, dir: dir}
}

func (s *Service) OrderCreated(ctx context.Context, o *order.Order, vendorIDs []types.ID) {
	data := payload(o)
	title := "New pickup nearby"
	body := fmt.Sprintf("#%d %s — %s", o.Number, materialSummary(o.Items), addressSnippet(o.Address))
	s.fanOut(ctx, vendorIDs, title, body, data)
}

func (s *Service) OrderAccepted(ctx context.Context, o *order.Order, losers []types.ID) {
	data := payload(o)
	s.fanOut(ctx, losers, "Pickup no longer available", fmt.Sprintf("#%d was taken by another vendor", o.Number), data)

	vendorName := ""
	if o.AssignedRef != nil {
		if u, err := s.dir.RefOwner(ctx, *o.AssignedRef); err == nil {
			vendorName = u.Name
		}
	}
	body := fmt.Sprintf("Your pickup #%d was accepted", o.Number)
	if vendorName != "" {
		body = fmt.Sprintf("Your pickup #%d was accepted by %s", o.Number, vendorName)
	}
	s.sendTo(ctx, o.CustomerID, "Pickup accepted", body, data)
}

func (s *Service) PickupStarted(ctx context.Context, o *order.Order) {
	s.sendTo(ctx, o.CustomerID, "Vendor on the way",
		fmt.Sprintf("Your pickup #%d is in progress", o.Number), payload(o))
}

func (s *Service) VendorArrived(ctx context.Context, o *order.Order) {
	s.sendTo(ctx, o.CustomerID, "Vendor arrived",
		fmt.Sprintf("The vendor for pickup #%d has arrived", o.Number), payload(o))
}

// fanOut sends to every recipient concurrently and settles all sends;
// one failure never cancels the rest.
func (s *Service) fanOut(ctx context.Context, ids []types.ID, title, body string, data map[string]string) {
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			s.sendTo(ctx, id, title, body, data)
		}(id)
	}
	wg.Wait()
}

func (s *Service) sendTo(ctx context.Context, id types.ID, title, body string, data map[string]string) {
	token, err := s.dir.PushToken(ctx, id)
	if err != nil || token == "" {
		log.Printf("notify: no push token for %s", id)
		return
	}
	if err := s.sender.Send(ctx, token, title, body, data); err != nil {
		log.Printf("notify: send to %s failed: %v", id, err)
	}
}

func payload(o *order.Order) map[string]string {
	return map[string]string{
		"order_id":     string(o.ID),
		"order_number": fmt.Sprintf("%d", o.Number),
		"status":       string(o.Status),
	}
}

// materialSummary compacts the item lines into "Iron, Paper +1 more".
func materialSummary(items []order.Item) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Material != "" {
			names = append(names, it.Material)
		}
	}
	if len(names) == 0 {
		return "scrap"
	}
	if len(names) > 2 {
		return fmt.Sprintf("%s +%d more", strings.Join(names[:2], ", "), len(names)-2)
	}
	return strings.Join(names, ", ")
}

// addressSnippet keeps notifications short.
func addressSnippet(addr string) string {
	const max = 40
	if len(addr) <= max {
		return addr
	}
	return addr[:max] + "..."
}
