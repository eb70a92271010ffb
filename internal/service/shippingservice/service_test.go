package shippingservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/service/shippingservice"
)

func TestQuote(t *testing.T) {
	svc := shippingservice.NewService(nil)

	q, err := svc.Quote("santa elena", "la libertad")
	require.NoError(t, err)
	assert.Equal(t, 1.50, q.Cost)
	assert.False(t, q.Fallback)

	q, err = svc.Quote("Marte", "")
	require.NoError(t, err)
	assert.Equal(t, domain.OtherProvinces, q.Province)
	assert.True(t, q.Fallback)

	_, err = svc.Quote("", "x")
	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCantons(t *testing.T) {
	svc := shippingservice.NewService(domain.ShippingTable{
		"Guayas": {"Guayaquil": 3, domain.OtherCantons: 4.5, "Daule": 3.5},
	})

	cantons, err := svc.Cantons("Guayas")
	require.NoError(t, err)
	require.Len(t, cantons, 3)
	assert.Equal(t, "Daule", cantons[0].Canton)
	assert.Equal(t, []string{"Guayas"}, svc.Provinces())

	_, err = svc.Cantons("Nada")
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
