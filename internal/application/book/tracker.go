package book

import (
	"sync"
	"time"
)

// TaskStatus 章节生成任务状态
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ChapterTask 单个章节任务的快照
type ChapterTask struct {
	Title    string     `json:"title"`
	Filename string     `json:"filename"`
	Position int        `json:"position"`
	Status   TaskStatus `json:"status"`
	// Indexed 章节内容是否已写入向量索引
	Indexed bool `json:"indexed"`
	// Error 失败原因，仅 failed 状态有值
	Error string `json:"error,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// BookTasks 一本书的任务集快照
type BookTasks struct {
	BookID string        `json:"book_id"`
	Tasks  []ChapterTask `json:"tasks"`
}

// Done 所有任务是否均已结束（completed 或 failed）
func (b *BookTasks) Done() bool {
	for _, t := range b.Tasks {
		if t.Status == TaskPending || t.Status == TaskRunning {
			return false
		}
	}
	return true
}

// Tracker 进程内章节任务追踪器。
// 状态不落库，进程重启后丢失；落盘的章节文件才是持久产物。
type Tracker struct {
	mu    sync.RWMutex
	books map[string][]ChapterTask
}

// NewTracker 创建任务追踪器
func NewTracker() *Tracker {
	return &Tracker{books: make(map[string][]ChapterTask)}
}

// Register 注册一本书的全部章节任务（初始 pending）
func (t *Tracker) Register(bookID string, tasks []ChapterTask) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := make([]ChapterTask, len(tasks))
	copy(copied, tasks)
	for i := range copied {
		copied[i].Status = TaskPending
	}
	t.books[bookID] = copied
}

// MarkRunning 标记任务开始执行
func (t *Tracker) MarkRunning(bookID string, position int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if task := t.find(bookID, position); task != nil {
		now := time.Now()
		task.Status = TaskRunning
		task.StartedAt = &now
	}
}

// MarkCompleted 标记任务成功结束
func (t *Tracker) MarkCompleted(bookID string, position int, indexed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if task := t.find(bookID, position); task != nil {
		now := time.Now()
		task.Status = TaskCompleted
		task.Indexed = indexed
		task.FinishedAt = &now
	}
}

// MarkFailed 标记任务失败
func (t *Tracker) MarkFailed(bookID string, position int, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if task := t.find(bookID, position); task != nil {
		now := time.Now()
		task.Status = TaskFailed
		task.Error = errMsg
		task.FinishedAt = &now
	}
}

// Snapshot 获取一本书的任务快照；未注册返回 nil
func (t *Tracker) Snapshot(bookID string) *BookTasks {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tasks, ok := t.books[bookID]
	if !ok {
		return nil
	}
	copied := make([]ChapterTask, len(tasks))
	copy(copied, tasks)
	return &BookTasks{BookID: bookID, Tasks: copied}
}

// find 按序号定位任务，调用方须持锁
func (t *Tracker) find(bookID string, position int) *ChapterTask {
	tasks := t.books[bookID]
	for i := range tasks {
		if tasks[i].Position == position {
			return &tasks[i]
		}
	}
	return nil
}
