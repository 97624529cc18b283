package products

// EventType is the kind of change-feed event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Change is one change-feed event. For DELETE only Product.ID is meaningful.
type Change struct {
	Type    EventType
	Product Product
}

// Reconcile applies c to list and returns the resulting list. list is not
// modified. Every rule is keyed by product id so replaying an event is a no-op:
//
//	INSERT  admit when active, replacing any row with the same id
//	UPDATE  replace or admit when active, otherwise remove
//	DELETE  remove
//
// Unknown event types leave the list unchanged. An UPDATE without images keeps
// the images already cached for that product.
func Reconcile(list []Product, c Change) []Product {
	switch c.Type {
	case EventInsert:
		if !c.Product.IsActive() {
			return list
		}
		return upsert(list, c.Product)
	case EventUpdate:
		if !c.Product.IsActive() {
			return remove(list, c.Product.ID)
		}
		return upsert(list, c.Product)
	case EventDelete:
		return remove(list, c.Product.ID)
	default:
		return list
	}
}

func indexOf(list []Product, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func upsert(list []Product, p Product) []Product {
	i := indexOf(list, p.ID)
	out := make([]Product, len(list), len(list)+1)
	copy(out, list)
	if i < 0 {
		return append(out, p)
	}
	if len(p.Images) == 0 {
		p.Images = list[i].Images
	}
	out[i] = p
	return out
}

func remove(list []Product, id string) []Product {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}
	out := make([]Product, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
