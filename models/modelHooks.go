package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (c *Customer) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, c.ID, c, "Created Customer "+c.Name); err != nil {
		return err
	}
	return nil
}

func (c *Customer) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Customer Updated."
	if tx.Statement.Changed("Name") {
		newName := tx.Statement.Dest.(map[string]interface{})["Name"].(string)
		description += fmt.Sprintf(" Name changed from %s to %s.", c.Name, newName)
	}
	if err := SaveHistoryUpdate(tx, c.ID, c, description); err != nil {
		return err
	}
	return nil
}

func (c *Customer) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, c.ID, c, "Deleted Customer"); err != nil {
		return err
	}
	return nil
}

func (s *Supplier) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, s.ID, s, "Created Supplier "+s.Name); err != nil {
		return err
	}
	return nil
}

func (s *Supplier) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Supplier Updated."
	if tx.Statement.Changed("Name") {
		newName := tx.Statement.Dest.(map[string]interface{})["Name"].(string)
		description += fmt.Sprintf(" Name changed from %s to %s.", s.Name, newName)
	}
	if err := SaveHistoryUpdate(tx, s.ID, s, description); err != nil {
		return err
	}
	return nil
}

func (s *Supplier) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, s.ID, s, "Deleted Supplier"); err != nil {
		return err
	}
	return nil
}

func (e *Employee) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, e.ID, e, "Created Employee "+e.Name); err != nil {
		return err
	}
	return nil
}

func (e *Employee) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Employee Updated."
	if tx.Statement.Changed("Position") {
		newPosition := tx.Statement.Dest.(map[string]interface{})["Position"].(string)
		description += fmt.Sprintf(" Position changed from %s to %s.", e.Position, newPosition)
	}
	if err := SaveHistoryUpdate(tx, e.ID, e, description); err != nil {
		return err
	}
	return nil
}

func (e *Employee) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, e.ID, e, "Deleted Employee"); err != nil {
		return err
	}
	return nil
}

func (p *Product) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, p.ID, p, "Created Product "+p.Name); err != nil {
		return err
	}
	return nil
}

func (p *Product) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Product Updated."
	if tx.Statement.Changed("CostPrice") {
		newPrice := tx.Statement.Dest.(map[string]interface{})["CostPrice"].(decimal.Decimal)
		description += fmt.Sprintf(" Cost price changed from %v to %v.", p.CostPrice, newPrice)
	}
	if tx.Statement.Changed("SalesPrice") {
		newPrice := tx.Statement.Dest.(map[string]interface{})["SalesPrice"].(decimal.Decimal)
		description += fmt.Sprintf(" Sales price changed from %v to %v.", p.SalesPrice, newPrice)
	}
	if err := SaveHistoryUpdate(tx, p.ID, p, description); err != nil {
		return err
	}
	return nil
}

func (p *Product) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, p.ID, p, "Deleted Product"); err != nil {
		return err
	}
	return nil
}

func (po *PurchaseOrder) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, po.ID, po, "Created Purchase Order "+po.OrderNumber); err != nil {
		return err
	}
	return nil
}

func (po *PurchaseOrder) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Purchase Order Updated."
	if tx.Statement.Changed("OrderTotalAmount") {
		newAmount := tx.Statement.Dest.(map[string]interface{})["OrderTotalAmount"].(decimal.Decimal)
		description += fmt.Sprintf(" Total amount changed from %v to %v.", po.OrderTotalAmount, newAmount)
	}
	if err := SaveHistoryUpdate(tx, po.ID, po, description); err != nil {
		return err
	}
	return nil
}

func (po *PurchaseOrder) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, po.ID, po, "Deleted Purchase Order "+po.OrderNumber); err != nil {
		return err
	}
	return nil
}

func (s *Sale) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, s.ID, s, "Created Sale "+s.SaleNumber); err != nil {
		return err
	}
	return nil
}

func (s *Sale) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Sale Updated."
	if tx.Statement.Changed("FinalAmount") {
		newAmount := tx.Statement.Dest.(map[string]interface{})["FinalAmount"].(decimal.Decimal)
		description += fmt.Sprintf(" Final amount changed from %v to %v.", s.FinalAmount, newAmount)
	}
	if err := SaveHistoryUpdate(tx, s.ID, s, description); err != nil {
		return err
	}
	return nil
}

func (s *Sale) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, s.ID, s, "Deleted Sale "+s.SaleNumber); err != nil {
		return err
	}
	return nil
}
