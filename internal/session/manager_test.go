package session

import (
	"context"
	"errors"
	"testing"

	"github.com/oshxona-pos/terminal/internal/enum"
	"github.com/oshxona-pos/terminal/internal/remote"
)

type fixedRole string

func (r fixedRole) Role() string { return string(r) }

func TestManagerOpenIsIdempotent(t *testing.T) {
	fetches := 0
	client := &mockClient{
		fetchOrderFn: func(ctx context.Context, id string) (*remote.Order, error) {
			fetches++
			return testOrder(enum.OrderStatusProcessing), nil
		},
	}
	m := NewManager(client, fixedRole(enum.RoleWaiter))

	a, err := m.Open(context.Background(), "order-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Open(context.Background(), "order-1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second open returned a different session")
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestManagerGet(t *testing.T) {
	client := &mockClient{
		fetchOrderFn: func(ctx context.Context, id string) (*remote.Order, error) {
			return testOrder(enum.OrderStatusProcessing), nil
		},
	}
	m := NewManager(client, fixedRole(enum.RoleWaiter))

	if _, err := m.Get("order-1"); !errors.Is(err, ErrNoEditSession) {
		t.Errorf("Get before open: err = %v, want ErrNoEditSession", err)
	}

	opened, err := m.Open(context.Background(), "order-1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Get("order-1")
	if err != nil || got != opened {
		t.Errorf("Get = %v, %v", got, err)
	}
}

func TestManagerCloseRemovesEvenOnFlushError(t *testing.T) {
	boom := errors.New("store down")
	client := &mockClient{
		fetchOrderFn: func(ctx context.Context, id string) (*remote.Order, error) {
			return testOrder(enum.OrderStatusProcessing), nil
		},
		createOrderItemsFn: func(ctx context.Context, orderID string, items []remote.NewOrderItem) ([]remote.OrderItem, error) {
			return nil, boom
		},
	}
	m := NewManager(client, fixedRole(enum.RoleWaiter))

	es, err := m.Open(context.Background(), "order-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := es.AddItem(plov()); err != nil {
		t.Fatal(err)
	}

	if err := m.Close(context.Background(), "order-1"); !errors.Is(err, boom) {
		t.Errorf("Close err = %v, want flush error", err)
	}
	// The session is forgotten regardless.
	if _, err := m.Get("order-1"); !errors.Is(err, ErrNoEditSession) {
		t.Error("session survived a failed close")
	}

	if err := m.Close(context.Background(), "order-1"); !errors.Is(err, ErrNoEditSession) {
		t.Errorf("double close err = %v, want ErrNoEditSession", err)
	}
}

func TestManagerCloseAll(t *testing.T) {
	client := &mockClient{
		fetchOrderFn: func(ctx context.Context, id string) (*remote.Order, error) {
			o := testOrder(enum.OrderStatusProcessing)
			o.ID = id
			return o, nil
		},
		createOrderItemsFn: func(ctx context.Context, orderID string, items []remote.NewOrderItem) ([]remote.OrderItem, error) {
			return nil, nil
		},
	}
	m := NewManager(client, fixedRole(enum.RoleWaiter))

	for _, id := range []string{"order-1", "order-2"} {
		es, err := m.Open(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if err := es.AddItem(plov()); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.CloseAll(context.Background()); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	for _, id := range []string{"order-1", "order-2"} {
		if _, err := m.Get(id); !errors.Is(err, ErrNoEditSession) {
			t.Errorf("session %s survived CloseAll", id)
		}
	}
}
