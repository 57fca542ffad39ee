package manuals

import (
	"encoding/json"
	"testing"

	"manualdesk/internal/apperr"
	"manualdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBlocks_Ordering(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")
	vid := *d.CurrentVersionID

	add := func(order *int, text string) *models.ContentBlock {
		b, err := f.svc.CreateBlock(f.ctx, author, vid, BlockInput{
			Type:  models.BlockText,
			Order: order,
			Data:  json.RawMessage(`{"text":"` + text + `"}`),
		})
		require.NoError(t, err)
		return b
	}

	add(intPtr(5), "last")
	add(intPtr(1), "first-a")
	add(intPtr(1), "first-b")
	auto := add(nil, "auto")
	assert.Equal(t, 6, auto.Order)

	blocks, err := f.svc.ListBlocks(f.ctx, author, vid)
	require.NoError(t, err)
	var texts []string
	for _, b := range blocks {
		var p struct{ Text string }
		require.NoError(t, json.Unmarshal(b.Data, &p))
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{"first-a", "first-b", "last", "auto"}, texts)
}

func TestBlocks_ValidatesPayload(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")
	vid := *d.CurrentVersionID

	_, err := f.svc.CreateBlock(f.ctx, author, vid, BlockInput{Type: models.BlockChecklist, Data: json.RawMessage(`{"items":[]}`)})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.CreateBlock(f.ctx, author, vid, BlockInput{Type: "VIDEO", Data: json.RawMessage(`{}`)})
	assert.True(t, apperr.IsValidation(err))

	b, err := f.svc.CreateBlock(f.ctx, author, vid, BlockInput{Type: models.BlockImage, Data: json.RawMessage(`{"src":"/img/helmet.png"}`)})
	require.NoError(t, err)

	_, err = f.svc.UpdateBlock(f.ctx, author, b.ID, BlockUpdate{Data: json.RawMessage(`{"text":"not an image"}`)})
	assert.True(t, apperr.IsValidation(err))

	updated, err := f.svc.UpdateBlock(f.ctx, author, b.ID, BlockUpdate{Order: intPtr(3), Data: json.RawMessage(`{"src":"/img/boots.png","alt":"Boots"}`)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Order)
	assert.JSONEq(t, `{"src":"/img/boots.png","alt":"Boots"}`, string(updated.Data))
}

func TestBlocks_FrozenAfterSubmitAndOnOldVersions(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")
	v1 := *d.CurrentVersionID

	b, err := f.svc.CreateBlock(f.ctx, author, v1, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"a"}`)})
	require.NoError(t, err)

	_, err = f.svc.Submit(f.ctx, author, d.Slug)
	require.NoError(t, err)

	_, err = f.svc.CreateBlock(f.ctx, author, v1, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"b"}`)})
	assert.True(t, apperr.IsInvalidState(err))
	_, err = f.svc.UpdateBlock(f.ctx, author, b.ID, BlockUpdate{Order: intPtr(2)})
	assert.True(t, apperr.IsInvalidState(err))
	assert.True(t, apperr.IsInvalidState(f.svc.DeleteBlock(f.ctx, author, b.ID)))

	v2, err := f.svc.CreateVersion(f.ctx, author, d.Slug, NewVersion{CopyBlocks: true})
	require.NoError(t, err)
	require.Len(t, v2.Blocks, 1)
	require.NoError(t, f.svc.DeleteBlock(f.ctx, author, v2.Blocks[0].ID))

	// v1 уже не текущая версия
	_, err = f.svc.Rollback(f.ctx, author, d.Slug, 1)
	require.NoError(t, err)
	_, err = f.svc.CreateBlock(f.ctx, author, v2.ID, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"c"}`)})
	assert.True(t, apperr.IsInvalidState(err))

	original, err := f.svc.GetVersion(f.ctx, author, v1)
	require.NoError(t, err)
	assert.Len(t, original.Blocks, 1)
}

func TestBlocks_AccessAndNotFound(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	b, err := f.svc.CreateBlock(f.ctx, author, *d.CurrentVersionID, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"a"}`)})
	require.NoError(t, err)

	_, err = f.svc.GetBlock(f.ctx, outsider, b.ID)
	assert.True(t, apperr.IsPermission(err))
	assert.True(t, apperr.IsPermission(f.svc.DeleteBlock(f.ctx, outsider, b.ID)))

	_, err = f.svc.GetBlock(f.ctx, author, b.ID+10)
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.CreateBlock(f.ctx, author, 999, BlockInput{Type: models.BlockText, Data: json.RawMessage(`{"text":"a"}`)})
	assert.True(t, apperr.IsNotFound(err))

	got, err := f.svc.GetBlock(f.ctx, author, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestPreviewVersion(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	d := f.manual(t, author, "Safety Guide")

	_, err := f.svc.CreateBlock(f.ctx, author, *d.CurrentVersionID, BlockInput{
		Type: models.BlockChecklist,
		Data: json.RawMessage(`{"title":"Before entry","items":[{"text":"Helmet"}]}`),
	})
	require.NoError(t, err)

	p, err := f.svc.PreviewVersion(f.ctx, author, *d.CurrentVersionID)
	require.NoError(t, err)
	assert.Contains(t, p.HTML, "<h1>Safety Guide</h1>")
	assert.Contains(t, p.HTML, "Helmet")
	assert.Len(t, p.Version.Blocks, 1)
}

func TestAudit_Visibility(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", models.RoleUser)
	outsider := f.user(t, "outsider", models.RoleUser)
	supervisor := f.user(t, "supervisor", models.RoleSupervisor)

	d := f.manual(t, author, "Safety Guide")
	f.manual(t, outsider, "Outsider Notes")

	logs, total, err := f.svc.ListAudit(f.ctx, author, AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, d.ID, *logs[0].ManualID)

	_, err = f.svc.GetAudit(f.ctx, outsider, logs[0].ID)
	assert.True(t, apperr.IsNotFound(err))

	entry, err := f.svc.GetAudit(f.ctx, author, logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCreate, entry.Action)

	_, total, err = f.svc.ListAudit(f.ctx, supervisor, AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = f.svc.ListAudit(f.ctx, supervisor, AuditFilter{ManualID: d.ID, Action: models.ActionCreate})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
