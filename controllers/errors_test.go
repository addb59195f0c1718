package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidInput, http.StatusBadRequest},
		{models.ErrInvalidWorker, http.StatusBadRequest},
		{fmt.Errorf("consume: %w", models.ErrInvalidAmount), http.StatusBadRequest},
		{models.ErrMalformedPayload, http.StatusBadRequest},
		{models.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("find tool: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrNotConsumable, http.StatusConflict},
		{models.ErrInstanceUnavailable, http.StatusConflict},
		{models.ErrInstanceNotLoaned, http.StatusConflict},
		{fmt.Errorf("list: %w: %w", models.ErrStorage, errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}
