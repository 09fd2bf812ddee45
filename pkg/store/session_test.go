package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionStoreSelectionsArePerChat(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	s := NewRedisSessionStore(redisSrv.Addr(), "", 0)
	ctx := context.Background()

	if err := s.SetActiveTenant(ctx, "chat-1", "K1"); err != nil {
		t.Fatalf("set chat-1: %v", err)
	}
	if err := s.SetActiveTenant(ctx, "chat-2", "K2"); err != nil {
		t.Fatalf("set chat-2: %v", err)
	}

	key, ok, err := s.ActiveTenant(ctx, "chat-1")
	if err != nil || !ok || key != "K1" {
		t.Fatalf("chat-1 tenant = (%q, %v, %v), want (K1, true, nil)", key, ok, err)
	}
	key, ok, err = s.ActiveTenant(ctx, "chat-2")
	if err != nil || !ok || key != "K2" {
		t.Fatalf("chat-2 tenant = (%q, %v, %v), want (K2, true, nil)", key, ok, err)
	}
	if _, ok, err := s.ActiveTenant(ctx, "chat-3"); err != nil || ok {
		t.Fatalf("chat-3 should have no selection, got (%v, %v)", ok, err)
	}
}

func TestRedisSessionStoreReselectOverwrites(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	s := NewRedisSessionStore(redisSrv.Addr(), "", 0)
	ctx := context.Background()

	if err := s.SetActiveTenant(ctx, "chat-1", "K1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetActiveTenant(ctx, "chat-1", "K2"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	key, ok, err := s.ActiveTenant(ctx, "chat-1")
	if err != nil || !ok || key != "K2" {
		t.Fatalf("tenant = (%q, %v, %v), want (K2, true, nil)", key, ok, err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	if _, ok, _ := s.ActiveTenant(ctx, "chat-1"); ok {
		t.Fatalf("fresh store should have no selection")
	}
	if err := s.SetActiveTenant(ctx, "chat-1", "K1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	key, ok, _ := s.ActiveTenant(ctx, "chat-1")
	if !ok || key != "K1" {
		t.Fatalf("tenant = (%q, %v)", key, ok)
	}
}
