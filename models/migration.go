package models

import (
	"log"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Agency{},
		&StockItem{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
