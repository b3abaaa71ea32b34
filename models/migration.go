package models

import (
	"log"

	"bitbucket.org/terrafocus/lease_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &User{},
		&Property{}, &Supplier{}, &Charge{}, &DocType{},
		&FiscalYear{}, &AccountingPeriod{},
		&Contract{}, &ContractCharge{},
		&Receipt{},
		&Invoice{}, &InvoiceLine{},
		&GLPosting{}, &PostingEntry{},
		&Attachment{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
