package portal

import (
	"fmt"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

// BoardColumns is the fixed column order of the task board.
var BoardColumns = []models.TaskStatus{models.TaskTodo, models.TaskInProgress, models.TaskDone}

// Board is one rendering of the task board, tasks grouped by status.
type Board struct {
	Columns map[models.TaskStatus][]models.Task
	Loading bool
	Err     error
}

// WatchBoard feeds the task board page.
func (p *Portal) WatchBoard(fn func(Board)) (central.Unsubscribe, error) {
	return watch[models.Task](p, central.Query{Collection: models.CollectionTasks}, func(v View[models.Task]) {
		board := Board{
			Columns: make(map[models.TaskStatus][]models.Task, len(BoardColumns)),
			Loading: v.Loading,
			Err:     v.Err,
		}
		for _, column := range BoardColumns {
			board.Columns[column] = nil
		}
		for _, task := range v.Items {
			board.Columns[task.Status] = append(board.Columns[task.Status], task)
		}
		fn(board)
	})
}

// AddTask dispatches a new task onto the board. Tasks start in Todo
// unless the caller picked a status.
func (p *Portal) AddTask(task models.Task) (central.DocRef, error) {
	if task.Title == "" {
		return central.DocRef{}, fmt.Errorf("%w: task title is required", status.ErrInvalidArgument)
	}
	if task.Status == "" {
		task.Status = models.TaskTodo
	}

	return p.client.EnqueueCreate(central.Collection(models.CollectionTasks), central.Fields{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"assigneeId":  task.AssigneeID,
		"dueDate":     task.DueDate,
	})
}

// MoveTask dispatches a status change for a task.
func (p *Portal) MoveTask(taskID string, to models.TaskStatus) error {
	if taskID == "" {
		return fmt.Errorf("%w: task id is required", status.ErrInvalidArgument)
	}
	return p.client.EnqueueUpdate(central.Doc(models.CollectionTasks, taskID), central.Fields{
		"status": to,
	})
}
