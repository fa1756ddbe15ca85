package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Audit collections mirroring ledger transitions for the admin UI.
// The ledger itself is the source of truth; these are write-through
// copies.
func init() {
	m.Register(func(app core.App) error {
		events := core.NewBaseCollection("ledger_events")
		events.Fields.Add(
			&core.NumberField{Name: "event_id", Required: true, OnlyInt: true},
			&core.TextField{Name: "name"},
			&core.TextField{Name: "location"},
			&core.NumberField{Name: "total_seats", OnlyInt: true},
			&core.TextField{Name: "ticket_price"},
			&core.TextField{Name: "organizer"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		if err := app.Save(events); err != nil {
			return err
		}

		tickets := core.NewBaseCollection("ledger_tickets")
		tickets.Fields.Add(
			&core.NumberField{Name: "token_id", Required: true, OnlyInt: true},
			&core.NumberField{Name: "event_id", OnlyInt: true},
			&core.NumberField{Name: "seat", OnlyInt: true},
			&core.TextField{Name: "owner"},
			&core.BoolField{Name: "used"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		if err := app.Save(tickets); err != nil {
			return err
		}

		listings := core.NewBaseCollection("ledger_listings")
		listings.Fields.Add(
			&core.NumberField{Name: "listing_id", Required: true, OnlyInt: true},
			&core.NumberField{Name: "token_id", OnlyInt: true},
			&core.TextField{Name: "owner"},
			&core.TextField{Name: "price"},
			&core.TextField{Name: "status"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		if err := app.Save(listings); err != nil {
			return err
		}

		roles := core.NewBaseCollection("ledger_roles")
		roles.Fields.Add(
			&core.TextField{Name: "account", Required: true},
			&core.TextField{Name: "role"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		return app.Save(roles)
	}, func(app core.App) error {
		for _, name := range []string{"ledger_events", "ledger_tickets", "ledger_listings", "ledger_roles"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
