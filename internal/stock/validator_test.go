package stock

import (
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestValidateReportsFirstFailureInOrder(t *testing.T) {
	vase := models.Product{ID: uuid.New(), Name: "Vase", Stock: 3}
	lamp := models.Product{ID: uuid.New(), Name: "Lamp", Stock: 0}
	products := map[uuid.UUID]models.Product{vase.ID: vase, lamp.ID: lamp}

	err := Validate([]Request{{ProductID: vase.ID, Quantity: 5}, {ProductID: lamp.ID, Quantity: 1}}, products)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
		t.Fatalf("expected stock conflict, got %v", err)
	}
	if typed.PublicMessage() != "Insufficient stock for Vase. Max: 3" {
		t.Fatalf("unexpected message %q", typed.PublicMessage())
	}
}

func TestValidateMissingProduct(t *testing.T) {
	id := uuid.New()
	err := Validate([]Request{{ProductID: id, Quantity: 1}}, map[uuid.UUID]models.Product{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if typed.PublicMessage() != "Product not found: "+id.String() {
		t.Fatalf("unexpected message %q", typed.PublicMessage())
	}
}

func TestValidateExactStockPasses(t *testing.T) {
	p := models.Product{ID: uuid.New(), Name: "Gear", Stock: 2}
	if err := Validate([]Request{{ProductID: p.ID, Quantity: 2}}, map[uuid.UUID]models.Product{p.ID: p}); err != nil {
		t.Fatalf("expected exact stock to pass, got %v", err)
	}
}

func TestAggregateCombinesDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := Aggregate([]Request{{a, 2}, {b, 1}, {a, 3}})
	if len(got) != 2 || got[0].ProductID != a || got[0].Quantity != 5 || got[1].Quantity != 1 {
		t.Fatalf("unexpected aggregate %+v", got)
	}

	p := models.Product{ID: a, Name: "Gear", Stock: 4}
	if err := Validate(got, map[uuid.UUID]models.Product{a: p, b: {ID: b, Name: "Cog", Stock: 9}}); err == nil {
		t.Fatal("combined quantity 5 should exceed stock 4")
	}
}
