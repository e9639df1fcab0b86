package models

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserSettings{},
		&Tag{},
		&Company{},
		&Job{},
		&Portfolio{},
		&Project{},
		&BillingAccount{},
		&BillingSubscription{},
		&ProcessedWebhookEvent{},
	}
}
