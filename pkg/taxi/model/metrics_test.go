package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

func TestRMSE(t *testing.T) {
	v, err := RMSE([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = RMSE([]float64{0, 0}, []float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.5355339, v, 1e-6)
}

func TestRMSE_Undefined(t *testing.T) {
	_, err := RMSE(nil, nil)
	assert.True(t, exception.IsDataQualityError(err))

	_, err = RMSE([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, exception.ErrModel)
}
