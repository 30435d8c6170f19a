package api

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedPackages inserts the baseline pricing packages. Existing rows are left
// untouched so operators can adjust prices without the seed reverting them.
func SeedPackages(ctx context.Context, orm *gorm.DB) error {
	defaults := []packageModel{
		{ID: uuid.New(), Name: "Starter", PriceCents: 0},
		{ID: uuid.New(), Name: "Classroom", PriceCents: 4900},
		{ID: uuid.New(), Name: "School", PriceCents: 19900},
	}
	for _, pkg := range defaults {
		if err := orm.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&pkg).Error; err != nil {
			return err
		}
	}
	return nil
}
