package models

import (
	"log"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Customer{}, &Supplier{}, &Employee{},
		&ProductCategory{}, &Product{}, &Image{},
		&PurchaseOrder{}, &PurchaseOrderDetail{},
		&Sale{}, &SaleDetail{},
		&StockMovement{},
		&Attendance{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
