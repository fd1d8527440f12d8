package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/mocks"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

func TestPublishOrderCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	order := &models.Order{
		ID:          7,
		CustomerID:  3,
		ProductIDs:  []int64{1, 2},
		TotalAmount: decimal.RequireFromString("150.00"),
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var body []byte
	pub.EXPECT().
		Publish(gomock.Any(), OrderCreatedTopic, "7", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, b []byte) error {
			body = b
			return nil
		})

	require.NoError(t, NewOrderPublisher(pub).PublishOrderCreated(context.Background(), order))

	var event models.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(body, &event))
	assert.Equal(t, int64(7), event.OrderID)
	assert.Equal(t, int64(3), event.CustomerID)
	assert.Equal(t, []int64{1, 2}, event.ProductIDs)
	assert.True(t, decimal.RequireFromString("150").Equal(event.TotalAmount))
}

func TestPublishOrderCreatedPropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	err := NewOrderPublisher(pub).PublishOrderCreated(context.Background(), &models.Order{ID: 1})
	assert.ErrorContains(t, err, "broker down")
}
