package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"gorm.io/gorm"
)

func boardFixture(t *testing.T) (*gorm.DB, *BoardService, *model.Project, *model.User) {
	t.Helper()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com", "owner")
	project := createProject(t, db, owner.ID, "PAY")
	return db, NewBoardService(db), project, owner
}

func TestGetBoardOrdering(t *testing.T) {
	db, svc, project, owner := boardFixture(t)
	tickets := NewTicketService(db, nil)
	for i := 0; i < 3; i++ {
		_, err := tickets.Create(project.ID, owner.ID, CreateTicketInput{Title: "task"})
		require.NoError(t, err)
	}

	board, err := svc.Get(project.ID)
	require.NoError(t, err)
	require.Len(t, board.Statuses, 4)
	require.Len(t, board.Statuses[0].Tickets, 3)
	for i, ticket := range board.Statuses[0].Tickets {
		assert.Equal(t, i, ticket.Position)
	}
}

func TestCreateStatusAppends(t *testing.T) {
	_, svc, project, _ := boardFixture(t)

	status, err := svc.CreateStatus(project.ID, "Blocked")
	require.NoError(t, err)
	assert.Equal(t, 4, status.Position)
	assert.False(t, status.IsDefault)

	_, err = svc.CreateStatus(project.ID, "Blocked")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateStatusDefaultFlag(t *testing.T) {
	db, svc, project, _ := boardFixture(t)
	doing := statusByName(t, db, project, "In Progress")

	setDefault := true
	updated, err := svc.UpdateStatus(project.ID, doing.ID, UpdateStatusInput{Default: &setDefault})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	// At most one default column per board.
	var count int64
	require.NoError(t, db.Model(&model.Status{}).
		Where("board_id = ? AND is_default = ?", project.Board.ID, true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteStatus(t *testing.T) {
	db, svc, project, owner := boardFixture(t)
	todo := statusByName(t, db, project, "To Do")
	done := statusByName(t, db, project, "Done")

	// The default column stays.
	err := svc.DeleteStatus(project.ID, todo.ID)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// A column with tickets stays.
	tickets := NewTicketService(db, nil)
	ticket, err := tickets.Create(project.ID, owner.ID, CreateTicketInput{Title: "task", StatusID: &done.ID})
	require.NoError(t, err)
	err = svc.DeleteStatus(project.ID, done.ID)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// Empty and non-default: gone.
	require.NoError(t, tickets.Delete(project.ID, ticket.ID, owner.ID, model.RoleOwner))
	require.NoError(t, svc.DeleteStatus(project.ID, done.ID))
}

func TestStatusScopedToProject(t *testing.T) {
	db, svc, project, _ := boardFixture(t)

	other := createUser(t, db, "other@example.com", "other")
	otherProject := createProject(t, db, other.ID, "OPS")
	foreign := statusByName(t, db, otherProject, "Done")

	_, err := svc.UpdateStatus(project.ID, foreign.ID, UpdateStatusInput{})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}
