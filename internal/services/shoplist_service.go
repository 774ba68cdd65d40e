package services

import (
	"bytes"
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/export"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

// Document is a rendered shopping list.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
	Lines       int
}

// ShoppingListService aggregates the cart into a downloadable document.
type ShoppingListService struct {
	DB *gorm.DB
	// FontPath is an optional UTF-8 TrueType font for the PDF renderer.
	FontPath string
}

// Items returns the aggregated shopping list of userID: amounts summed per
// (ingredient name, unit), ordered by name.
func (s *ShoppingListService) Items(ctx context.Context, userID uint) ([]export.Item, error) {
	rows, err := repo.ShoppingList(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]export.Item, len(rows))
	for i, r := range rows {
		out[i] = export.Item{Name: r.Name, Unit: r.Unit, Amount: r.Amount}
	}
	return out, nil
}

// Export renders the shopping list of userID in format ("" or "pdf", "txt").
// An empty cart yields ErrEmptyCart.
func (s *ShoppingListService) Export(ctx context.Context, userID uint, format string) (*Document, error) {
	ctx, span := otel.Tracer("services/ShoppingListService").Start(ctx, "Export",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("format", format),
		),
	)
	defer span.End()

	r, err := export.ForFormat(format, s.FontPath)
	if err != nil {
		return nil, fieldError("format", err.Error())
	}
	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, items); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("lines", len(items)))
	return &Document{
		ContentType: r.ContentType(),
		Filename:    r.Filename(),
		Body:        buf.Bytes(),
		Lines:       len(items),
	}, nil
}
