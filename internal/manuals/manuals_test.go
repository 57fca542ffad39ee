package manuals

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"manualdesk/internal/apperr"
	"manualdesk/internal/database"
	"manualdesk/internal/database/dbtest"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc *Service
	ctx context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{svc: NewService(dbtest.New(t)), ctx: context.Background()}
}

func (f *fixture) user(t *testing.T, username string, role models.UserRole) policy.Actor {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, f.svc.db.Create(&u).Error)
	return policy.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (f *fixture) manual(t *testing.T, actor policy.Actor, title string) *Detail {
	t.Helper()
	d, err := f.svc.Create(f.ctx, actor, CreateInput{Title: title})
	require.NoError(t, err)
	return d
}

func (f *fixture) auditActions(t *testing.T, manualID uint) []models.AuditAction {
	t.Helper()
	var logs []models.AuditLog
	require.NoError(t, f.svc.db.Where("manual_id = ?", manualID).Order("id").Find(&logs).Error)
	out := make([]models.AuditAction, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

func (f *fixture) assertCurrentVersionBelongs(t *testing.T, manualID uint) {
	t.Helper()
	var m models.Manual
	require.NoError(t, f.svc.db.Preload("CurrentVersion").First(&m, manualID).Error)
	require.NotNil(t, m.CurrentVersion)
	assert.Equal(t, manualID, m.CurrentVersion.ManualID)
}

var referencePattern = regexp.MustCompile(`^[A-Z0-9]{16}$`)

func TestCreate_StartsAsDraftWithVersionOne(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	d := f.manual(t, author, "Safety Guide")

	assert.Equal(t, models.StatusDraft, d.Status)
	assert.Equal(t, "safety-guide", d.Slug)
	assert.Regexp(t, referencePattern, d.Reference)
	require.NotNil(t, d.CurrentVersion)
	assert.Equal(t, 1, d.CurrentVersion.VersionNumber)
	assert.True(t, d.CanEdit)
	assert.True(t, d.CanManageCollaborators)
	f.assertCurrentVersionBelongs(t, d.ID)
	assert.Equal(t, []models.AuditAction{models.ActionCreate}, f.auditActions(t, d.ID))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	_, err := f.svc.Create(f.ctx, author, CreateInput{Title: "   "})
	assert.True(t, apperr.IsValidation(err))

	missing := uint(404)
	_, err = f.svc.Create(f.ctx, author, CreateInput{Title: "X", CategoryID: &missing})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.Create(f.ctx, author, CreateInput{Title: "X", TagIDs: []uint{1, 2}})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.Create(f.ctx, policy.Actor{}, CreateInput{Title: "X"})
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestCreate_TitleLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	// 200 символов, 400 байт
	title := strings.Repeat("Ж", 200)
	d, err := f.svc.Create(f.ctx, author, CreateInput{Title: title})
	require.NoError(t, err)
	assert.Equal(t, title, d.Title)
	assert.Equal(t, "manual", d.Slug)

	_, err = f.svc.Create(f.ctx, author, CreateInput{Title: strings.Repeat("Ж", maxTitleLength)})
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, author, CreateInput{Title: strings.Repeat("Ж", maxTitleLength+1)})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "title")
}

func TestCreate_SlugsAreUnique(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	first := f.manual(t, author, "Safety Guide")
	second := f.manual(t, author, "Safety Guide")
	assert.Equal(t, "safety-guide", first.Slug)
	assert.Equal(t, "safety-guide-2", second.Slug)

	_, err := f.svc.Create(f.ctx, author, CreateInput{Title: "Other", Slug: "safety-guide"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	custom, err := f.svc.Create(f.ctx, author, CreateInput{Title: "Other", Slug: "Fire Drill"})
	require.NoError(t, err)
	assert.Equal(t, "fire-drill", custom.Slug)
}

func TestCreate_WithTaxonomy(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	cat := models.Category{Name: "Safety", Slug: "safety"}
	require.NoError(t, f.svc.db.Create(&cat).Error)
	tag := models.Tag{Name: "Fire", Slug: "fire"}
	require.NoError(t, f.svc.db.Create(&tag).Error)

	d, err := f.svc.Create(f.ctx, author, CreateInput{Title: "Fire Safety", CategoryID: &cat.ID, TagIDs: []uint{tag.ID}})
	require.NoError(t, err)
	require.NotNil(t, d.Category)
	assert.Equal(t, "Safety", d.Category.Name)
	require.Len(t, d.Tags, 1)

	items, total, err := f.svc.List(f.ctx, author, ListFilter{Tag: "fire"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, d.ID, items[0].ID)

	zero := uint(0)
	updated, err := f.svc.Update(f.ctx, author, d.Slug, UpdateInput{CategoryID: &zero, TagIDs: &[]uint{}})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Empty(t, updated.Tags)
}

func TestReferences_UniqueAndNonEmpty(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		ref, err := NewReference()
		require.NoError(t, err)
		require.Regexp(t, referencePattern, ref)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestCreate_RetriesReferenceCollision(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	codes := []string{"AAAAAAAAAAAAAAAA", "AAAAAAAAAAAAAAAA", "BBBBBBBBBBBBBBBB"}
	f.svc.newReference = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	first := f.manual(t, author, "First")
	second := f.manual(t, author, "Second")

	assert.Equal(t, "AAAAAAAAAAAAAAAA", first.Reference)
	assert.Equal(t, "BBBBBBBBBBBBBBBB", second.Reference)
	assert.Empty(t, codes)

	var count int64
	require.NoError(t, f.svc.db.Model(&models.Manual{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)

	f.svc.newReference = func() (string, error) { return "CCCCCCCCCCCCCCCC", nil }
	f.manual(t, author, "First")

	_, err := f.svc.Create(f.ctx, author, CreateInput{Title: "Second"})
	assert.ErrorIs(t, err, errReferenceExhausted)

	var count int64
	require.NoError(t, f.svc.db.Model(&models.Manual{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateVersion_NumbersAreContiguous(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateVersion(f.ctx, author, d.Slug, NewVersion{Changelog: "edit", CopyBlocks: true})
		require.NoError(t, err)
	}

	versions, err := f.svc.ListVersions(f.ctx, author, d.Slug)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}

	got, err := f.svc.Get(f.ctx, author, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentVersion.VersionNumber)
	assert.Equal(t, models.StatusDraft, got.Status)
	f.assertCurrentVersionBelongs(t, d.ID)
}

func TestCreateVersion_ResetsStatusAndCopiesBlocks(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")
	v1 := *d.CurrentVersionID

	_, err := f.svc.CreateBlock(f.ctx, author, v1, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"one"}`)})
	require.NoError(t, err)
	_, err = f.svc.CreateBlock(f.ctx, author, v1, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"two"}`)})
	require.NoError(t, err)

	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	v2, err := f.svc.CreateVersion(f.ctx, author, d.Slug, NewVersion{CopyBlocks: true})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	require.Len(t, v2.Blocks, 2)
	assert.JSONEq(t, `{"text":"one"}`, string(v2.Blocks[0].Data))
	assert.Equal(t, 1, v2.Blocks[1].Order)

	got, err := f.svc.Get(f.ctx, author, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, got.Status)

	v3, err := f.svc.CreateVersion(f.ctx, author, d.Slug, NewVersion{CopyBlocks: false})
	require.NoError(t, err)
	assert.Empty(t, v3.Blocks)

	original, err := f.svc.GetVersion(f.ctx, author, v1)
	require.NoError(t, err)
	assert.Len(t, original.Blocks, 2)
}

func TestSubmit_Transitions(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	review, err := f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, review.Status)
	assert.Equal(t, *d.CurrentVersionID, review.VersionID)
	assert.Nil(t, review.DecidedAt)
	assert.Nil(t, review.ReviewerID)

	got, err := f.svc.Get(f.ctx, author, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, got.Status)

	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	assert.True(t, apperr.IsInvalidState(err))

	// после отклонения можно отправить снова
	require.NoError(t, f.svc.db.Model(&models.Manual{}).Where("id = ?", d.ID).Update("status", models.StatusRejected).Error)
	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	require.NoError(t, f.svc.db.Model(&models.Manual{}).Where("id = ?", d.ID).Update("status", models.StatusApproved).Error)
	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	assert.True(t, apperr.IsInvalidState(err))

	assert.Equal(t,
		[]models.AuditAction{models.ActionCreate, models.ActionSubmit, models.ActionSubmit},
		f.auditActions(t, d.ID))
}

func TestRollback(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.CreateVersion(f.ctx, author, d.Slug, NewVersion{})
	require.NoError(t, err)
	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	rolled, err := f.svc.Rollback(f.ctx, author, d.Slug, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, rolled.Status)
	assert.Equal(t, 1, rolled.CurrentVersion.VersionNumber)
	f.assertCurrentVersionBelongs(t, d.ID)

	resubmitted, err := f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	var reviews []models.ReviewRequest
	require.NoError(t, f.svc.db.Order("id").Find(&reviews).Error)
	require.Len(t, reviews, 2)
	assert.Equal(t, models.ReviewRejected, reviews[0].Status)
	assert.Equal(t, "superseded by rollback", reviews[0].Feedback)
	assert.NotNil(t, reviews[0].DecidedAt)
	assert.Equal(t, resubmitted.ID, reviews[1].ID)
	assert.Equal(t, models.ReviewPending, reviews[1].Status)

	var rollback models.AuditLog
	require.NoError(t, f.svc.db.Where("action = ?", models.ActionRollback).First(&rollback).Error)
	assert.EqualValues(t, 1, rollback.Metadata["closed_reviews"])

	_, err = f.svc.Rollback(f.ctx, author, d.Slug, 9)
	assert.True(t, apperr.IsNotFound(err))

	after, err := f.svc.Get(f.ctx, author, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, after.Status)
	assert.Equal(t, 1, after.CurrentVersion.VersionNumber)

	actions := f.auditActions(t, d.ID)
	assert.Equal(t, models.ActionRollback, actions[3])
	assert.Len(t, actions, 5)
}

func TestRollback_ToVersionOfAnotherManual(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	a := f.manual(t, author, "A")
	b := f.manual(t, author, "B")
	_, err := f.svc.CreateVersion(f.ctx, author, b.Slug, NewVersion{})
	require.NoError(t, err)

	_, err = f.svc.Rollback(f.ctx, author, a.Slug, 2)
	assert.True(t, apperr.IsNotFound(err))
	f.assertCurrentVersionBelongs(t, a.ID)
}

func TestViewerCollaborator(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	viewer := f.user(t, "viewer", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.AddCollaborator(f.ctx, author, d.Slug, viewer.UserID, models.CollaboratorViewer)
	require.NoError(t, err)

	seen, err := f.svc.Get(f.ctx, viewer, d.Slug)
	require.NoError(t, err)
	assert.False(t, seen.CanEdit)
	assert.False(t, seen.CanManageCollaborators)

	_, err = f.svc.CreateBlock(f.ctx, viewer, *d.CurrentVersionID, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"hi"}`)})
	assert.True(t, apperr.IsPermission(err))

	_, err = f.svc.CreateVersion(f.ctx, viewer, d.Slug, NewVersion{})
	assert.True(t, apperr.IsPermission(err))

	_, err = f.svc.Submit(f.ctx, viewer, d.Slug)
	assert.True(t, apperr.IsPermission(err))
}

func TestEditorCollaborator(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	editor := f.user(t, "editor", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.AddCollaborator(f.ctx, author, d.Slug, editor.UserID, models.CollaboratorEditor)
	require.NoError(t, err)

	_, err = f.svc.CreateBlock(f.ctx, editor, *d.CurrentVersionID, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"hi"}`)})
	require.NoError(t, err)

	// редактор не управляет участниками
	_, err = f.svc.AddCollaborator(f.ctx, editor, d.Slug, other.UserID, models.CollaboratorViewer)
	assert.True(t, apperr.IsPermission(err))

	err = f.svc.Delete(f.ctx, editor, d.Slug)
	assert.True(t, apperr.IsPermission(err))
}

func TestCollaborators_Errors(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	viewer := f.user(t, "viewer", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.AddCollaborator(f.ctx, author, d.Slug, author.UserID, models.CollaboratorEditor)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.AddCollaborator(f.ctx, author, d.Slug, 9999, models.CollaboratorEditor)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.AddCollaborator(f.ctx, author, d.Slug, viewer.UserID, "OWNER")
	assert.True(t, apperr.IsValidation(err))

	added, err := f.svc.AddCollaborator(f.ctx, author, d.Slug, viewer.UserID, models.CollaboratorViewer)
	require.NoError(t, err)

	_, err = f.svc.AddCollaborator(f.ctx, author, d.Slug, viewer.UserID, models.CollaboratorEditor)
	assert.True(t, apperr.IsValidation(err))

	list, err := f.svc.ListCollaborators(f.ctx, viewer, d.Slug)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "viewer", list[0].User.Username)

	assert.True(t, apperr.IsNotFound(f.svc.RemoveCollaborator(f.ctx, author, d.Slug, added.ID+100)))
	require.NoError(t, f.svc.RemoveCollaborator(f.ctx, author, d.Slug, added.ID))
	assert.True(t, apperr.IsNotFound(f.svc.RemoveCollaborator(f.ctx, author, d.Slug, added.ID)))

	_, err = f.svc.Get(f.ctx, viewer, d.Slug)
	assert.True(t, apperr.IsPermission(err))

	assert.Equal(t,
		[]models.AuditAction{models.ActionCreate, models.ActionCollaboratorAdd, models.ActionCollaboratorRemove},
		f.auditActions(t, d.ID))
}

func TestList_Visibility(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleAnalyst)
	collaborator := f.user(t, "collab", models.RoleUser)
	manager := f.user(t, "manager", models.RoleManager)

	draft := f.manual(t, author, "Draft Manual")
	approved := f.manual(t, author, "Approved Manual")
	shared := f.manual(t, author, "Shared Manual")
	require.NoError(t, f.svc.db.Model(&models.Manual{}).Where("id = ?", approved.ID).Update("status", models.StatusApproved).Error)
	_, err := f.svc.AddCollaborator(f.ctx, author, shared.Slug, collaborator.UserID, models.CollaboratorViewer)
	require.NoError(t, err)

	titles := func(actor policy.Actor, filter ListFilter) []string {
		items, total, err := f.svc.List(f.ctx, actor, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(len(items)), total)
		out := make([]string, 0, len(items))
		for _, m := range items {
			out = append(out, m.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Approved Manual"}, titles(outsider, ListFilter{}))
	assert.ElementsMatch(t, []string{"Approved Manual", "Shared Manual"}, titles(collaborator, ListFilter{}))
	assert.ElementsMatch(t, []string{"Draft Manual", "Approved Manual", "Shared Manual"}, titles(author, ListFilter{}))
	assert.ElementsMatch(t, []string{"Draft Manual", "Approved Manual", "Shared Manual"}, titles(manager, ListFilter{}))
	assert.ElementsMatch(t, []string{"Shared Manual"}, titles(collaborator, ListFilter{Mine: true}))
	assert.ElementsMatch(t, []string{"Draft Manual", "Shared Manual"}, titles(author, ListFilter{Status: models.StatusDraft}))
	assert.ElementsMatch(t, []string{"Shared Manual"}, titles(author, ListFilter{Query: "shar"}))

	_, err = f.svc.Get(f.ctx, outsider, draft.Slug)
	assert.True(t, apperr.IsPermission(err))
	got, err := f.svc.Get(f.ctx, outsider, approved.Slug)
	require.NoError(t, err)
	assert.False(t, got.CanEdit)
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	for _, title := range []string{"One", "Two", "Three"} {
		f.manual(t, author, title)
	}

	items, total, err := f.svc.List(f.ctx, author, ListFilter{Pagination: database.Pagination{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)
}

func TestUpdate_MetadataOnly(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	title, dept := "Safety Guide 2025", "Operations"
	updated, err := f.svc.Update(f.ctx, author, d.Slug, UpdateInput{Title: &title, Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, dept, updated.Department)
	assert.Equal(t, "safety-guide", updated.Slug)
	assert.Equal(t, d.Reference, updated.Reference)
	assert.Equal(t, *d.CurrentVersionID, *updated.CurrentVersionID)

	_, err = f.svc.Update(f.ctx, outsider, d.Slug, UpdateInput{Title: &title})
	assert.True(t, apperr.IsPermission(err))

	_, err = f.svc.Update(f.ctx, author, "missing", UpdateInput{Title: &title})
	assert.True(t, apperr.IsNotFound(err))

	assert.Equal(t, []models.AuditAction{models.ActionCreate, models.ActionUpdate}, f.auditActions(t, d.ID))
}

func TestDelete_CascadesAndKeepsAudit(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	viewer := f.user(t, "viewer", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.CreateBlock(f.ctx, author, *d.CurrentVersionID, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"a"}`)})
	require.NoError(t, err)
	_, err = f.svc.AddCollaborator(f.ctx, author, d.Slug, viewer.UserID, models.CollaboratorViewer)
	require.NoError(t, err)
	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, author, d.Slug))

	for _, model := range []any{&models.Manual{}, &models.ManualVersion{}, &models.ContentBlock{}, &models.ReviewRequest{}, &models.ManualCollaborator{}} {
		var n int64
		require.NoError(t, f.svc.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}

	var logs []models.AuditLog
	require.NoError(t, f.svc.db.Order("id").Find(&logs).Error)
	require.NotEmpty(t, logs)
	for _, l := range logs {
		assert.Nil(t, l.ManualID)
		assert.Nil(t, l.VersionID)
	}
	last := logs[len(logs)-1]
	assert.Equal(t, models.ActionDelete, last.Action)
	assert.Equal(t, "safety-guide", last.Metadata["slug"])
}

func TestDelete_AdminAllowed(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	admin := f.user(t, "root", models.RoleAdmin)
	manager := f.user(t, "manager", models.RoleManager)
	d := f.manual(t, author, "Safety Guide")

	assert.True(t, apperr.IsPermission(f.svc.Delete(f.ctx, manager, d.Slug)))
	require.NoError(t, f.svc.Delete(f.ctx, admin, d.Slug))
	assert.True(t, apperr.IsNotFound(f.svc.Delete(f.ctx, admin, d.Slug)))
}
