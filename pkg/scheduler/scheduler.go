package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is a named function run on a fixed interval
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
}

// Scheduler runs background tasks on fixed intervals until stopped
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make([]*Task, 0),
	}
}

// AddTask registers a task. Must be called before Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
}

// Start launches one goroutine per task. Each task also runs once
// immediately so a restart doesn't wait a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, task := range s.tasks {
		go s.runTask(ctx, task)
	}

	log.Println("Scheduler started with", len(s.tasks), "tasks")
}

// Stop cancels all running tasks
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	log.Println("Scheduler stopped")
}

func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	if err := task.Fn(ctx); err != nil {
		log.Printf("Error running task %s: %v", task.Name, err)
	}

	for {
		select {
		case <-ticker.C:
			if err := task.Fn(ctx); err != nil {
				log.Printf("Error running task %s: %v", task.Name, err)
			}
		case <-ctx.Done():
			log.Printf("Task %s stopped", task.Name)
			return
		}
	}
}
