package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/course-service/internal/testutil"
)

func TestServiceManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	manager := NewServiceManager(ServiceDependencies{
		DB:     db,
		Repo:   testutil.NewRepository(db, nil),
		Logger: testutil.Logger(),
	}, ServiceManagerConfig{})

	t.Run("getters panic before initialize", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("Expected panic from uninitialized manager")
			}
		}()
		manager.Catalog()
	})

	if err := manager.HealthCheck(ctx); err == nil {
		t.Fatalf("Expected health check to fail before initialize")
	}

	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Initialize should be idempotent: %v", err)
	}
	if manager.Report() == nil || manager.Profile() == nil {
		t.Fatalf("Expected services after initialize")
	}
	if err := manager.HealthCheck(ctx); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}

	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("Failed to shut down: %v", err)
	}
	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("Second shutdown should be a no-op: %v", err)
	}
	if err := manager.HealthCheck(ctx); err == nil {
		t.Fatalf("Expected health check to fail after shutdown")
	}
}

func TestServiceManagerRequiresStore(t *testing.T) {
	manager := NewServiceManager(ServiceDependencies{Logger: testutil.Logger()}, ServiceManagerConfig{})
	if err := manager.Initialize(context.Background()); err == nil {
		t.Fatalf("Expected initialize to fail without a database")
	}
}
