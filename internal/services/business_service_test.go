package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadito/backoffice/internal/database/dbtest"
)

func TestCreateBusinessOnePerOwner(t *testing.T) {
	db := dbtest.New(t)
	service := NewBusinessService(db)
	ctx := context.Background()
	user := createUser(t, db, "ana")

	_, err := service.GetByOwner(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoBusiness)

	business, err := service.CreateBusiness(ctx, user.ID, &CreateBusinessRequest{Name: "Bodega Ana"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, business.UserID)

	_, err = service.CreateBusiness(ctx, user.ID, &CreateBusinessRequest{Name: "Otra"})
	assert.ErrorIs(t, err, ErrConflict)

	found, err := service.GetByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, business.ID, found.ID)
}

func TestCreateBusinessValidatesName(t *testing.T) {
	db := dbtest.New(t)
	user := createUser(t, db, "ana")

	_, err := NewBusinessService(db).CreateBusiness(context.Background(), user.ID, &CreateBusinessRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategoriesAreListedPerBusiness(t *testing.T) {
	db := dbtest.New(t)
	service := NewCategoryService(db)
	ctx := context.Background()
	_, own := createBusiness(t, db, "ana")
	_, other := createBusiness(t, db, "luis")

	_, err := service.Create(ctx, own, &CreateCategoryRequest{Nombre: "Ropa"})
	require.NoError(t, err)
	_, err = service.Create(ctx, own, &CreateCategoryRequest{Nombre: "Calzado"})
	require.NoError(t, err)
	_, err = service.Create(ctx, other, &CreateCategoryRequest{Nombre: "Comida"})
	require.NoError(t, err)

	categories, err := service.List(ctx, own)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Calzado", categories[0].Nombre)
	assert.Equal(t, "Ropa", categories[1].Nombre)

	_, err = service.Create(ctx, own, &CreateCategoryRequest{Nombre: ""})
	assert.ErrorIs(t, err, ErrValidation)
}
