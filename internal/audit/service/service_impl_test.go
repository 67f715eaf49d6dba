package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/audit/domain"
	"github.com/smallbiznis/credora/internal/audit/repository"
	"github.com/smallbiznis/credora/internal/auditcontext"
	"github.com/smallbiznis/credora/internal/orgcontext"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.Exec(
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGINT PRIMARY KEY,
			org_id BIGINT,
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			action TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT,
			user_agent TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func newAuditTestService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestAuditLogResolvesActorFromContext(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditTestService(t, db)

	ctx := orgcontext.WithOrgID(context.Background(), 7401)
	ctx = auditcontext.WithActor(ctx, "api_key", "key-42")
	ctx = auditcontext.WithIPAddress(ctx, "203.0.113.9")
	ctx = auditcontext.WithUserAgent(ctx, "credora-cli/1.0")

	targetID := "8401"
	err := svc.AuditLog(ctx, nil, "", nil, "customer.update", "customer", &targetID, map[string]any{
		"name":  "acme",
		"token": "crda_11112222_33334444",
	})
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}

	var entry domain.AuditLog
	if err := db.Table("audit_logs").First(&entry).Error; err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if entry.OrgID == nil || entry.OrgID.String() != "7401" {
		t.Fatalf("expected org resolved from context, got %v", entry.OrgID)
	}
	if entry.ActorType != "api_key" {
		t.Fatalf("expected actor type api_key, got %q", entry.ActorType)
	}
	if entry.ActorID == nil || *entry.ActorID != "key-42" {
		t.Fatalf("expected actor id key-42, got %v", entry.ActorID)
	}
	if entry.IPAddress == nil || *entry.IPAddress != "203.0.113.9" {
		t.Fatalf("expected ip from context, got %v", entry.IPAddress)
	}
	if entry.UserAgent == nil || *entry.UserAgent != "credora-cli/1.0" {
		t.Fatalf("expected user agent from context, got %v", entry.UserAgent)
	}
	if entry.TargetID == nil || *entry.TargetID != targetID {
		t.Fatalf("expected target id %q, got %v", targetID, entry.TargetID)
	}
	if entry.Metadata["name"] != "acme" {
		t.Fatalf("expected plain metadata preserved, got %v", entry.Metadata["name"])
	}
	if entry.Metadata["token"] != "****4444" {
		t.Fatalf("expected token masked in metadata, got %v", entry.Metadata["token"])
	}
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditTestService(t, db)

	ctx := orgcontext.WithOrgID(context.Background(), 7402)
	if err := svc.AuditLog(ctx, nil, "", nil, "rating.run_all", "rating", nil, nil); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	var entry domain.AuditLog
	if err := db.Table("audit_logs").First(&entry).Error; err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if entry.ActorType != string(domain.ActorTypeSystem) {
		t.Fatalf("expected system actor, got %q", entry.ActorType)
	}
	if entry.ActorID != nil {
		t.Fatalf("expected no actor id, got %v", entry.ActorID)
	}
}

func TestListFiltersAndScopesByOrg(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditTestService(t, db)

	orgCtx := orgcontext.WithOrgID(context.Background(), 7403)
	otherCtx := orgcontext.WithOrgID(context.Background(), 9999)

	seed := []struct {
		ctx    context.Context
		action string
		target string
	}{
		{orgCtx, "customer.update", "customer"},
		{orgCtx, "customer.update", "customer"},
		{orgCtx, "rating.run_all", "rating"},
		{otherCtx, "customer.update", "customer"},
	}
	for _, row := range seed {
		if err := svc.AuditLog(row.ctx, nil, "", nil, row.action, row.target, nil, nil); err != nil {
			t.Fatalf("seed audit log: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := svc.List(orgCtx, domain.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries for org, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("expected newest-first ordering")
		}
	}

	entries, err = svc.List(orgCtx, domain.ListFilter{Action: "customer.update"})
	if err != nil {
		t.Fatalf("list by action: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 customer.update entries, got %d", len(entries))
	}

	entries, err = svc.List(orgCtx, domain.ListFilter{TargetType: "rating"})
	if err != nil {
		t.Fatalf("list by target: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "rating.run_all" {
		t.Fatalf("expected single rating entry, got %d", len(entries))
	}

	entries, err = svc.List(orgCtx, domain.ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected limit 1 respected, got %d", len(entries))
	}
}
