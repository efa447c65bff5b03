package models

type Identifier interface {
	GetId() int
}

func (c Customer) GetId() int {
	return c.ID
}

func (s Supplier) GetId() int {
	return s.ID
}

func (e Employee) GetId() int {
	return e.ID
}

func (p Product) GetId() int {
	return p.ID
}

func (c ProductCategory) GetId() int {
	return c.ID
}

func (i Image) GetId() int {
	return i.ID
}

func (u User) GetId() int {
	return u.ID
}

func (p PurchaseOrder) GetId() int {
	return p.ID
}

func (d PurchaseOrderDetail) GetId() int {
	return d.ID
}

func (s Sale) GetId() int {
	return s.ID
}

func (d SaleDetail) GetId() int {
	return d.ID
}

func (a Attendance) GetId() int {
	return a.ID
}

func (m StockMovement) GetId() int {
	return m.ID
}

func (h History) GetId() int {
	return h.ID
}
