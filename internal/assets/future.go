// Package assets загружает внешние меши для объектов сцены.
package assets

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/monument/internal/scene"
)

// ErrPending результат еще не готов
var ErrPending = errors.New("assets: load pending")

// Future результат асинхронной загрузки одного ассета.
//
// Завершается ровно один раз: мешем или ошибкой. Колбэки OnComplete вызываются
// не более одного раза каждый, в горутине, завершившей загрузку, или сразу,
// если результат уже есть. Done и Wait срабатывают после всех колбэков,
// поэтому колбэк не должен ждать свой же Future. Порядок завершения разных
// Future не определен.
type Future struct {
	source string
	done   chan struct{}

	mu        sync.Mutex
	completed bool
	mesh      *scene.Mesh
	err       error
	callbacks []func(*scene.Mesh, error)
}

// NewFuture создает незавершенный Future
func NewFuture(source string) *Future {
	return &Future{source: source, done: make(chan struct{})}
}

// Resolved создает уже завершенный Future
func Resolved(source string, mesh *scene.Mesh, err error) *Future {
	f := NewFuture(source)
	f.Complete(mesh, err)
	return f
}

// Source ссылка на ассет
func (f *Future) Source() string {
	return f.source
}

// Done закрывается после завершения
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result возвращает результат без ожидания; до завершения - ErrPending
func (f *Future) Result() (*scene.Mesh, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		return nil, ErrPending
	}
	return f.mesh, f.err
}

// Wait ждет завершения или отмены ctx
func (f *Future) Wait(ctx context.Context) (*scene.Mesh, error) {
	select {
	case <-f.done:
		return f.Result()
	default:
	}
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnComplete регистрирует колбэк завершения
func (f *Future) OnComplete(fn func(*scene.Mesh, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	mesh, err := f.mesh, f.err
	f.mu.Unlock()
	fn(mesh, err)
}

// Complete завершает Future. Повторные вызовы игнорируются и возвращают false.
func (f *Future) Complete(mesh *scene.Mesh, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	if err != nil {
		mesh = nil
	}
	f.mesh, f.err = mesh, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	// done закрывается после колбэков: Wait видит их результат
	for _, fn := range callbacks {
		fn(mesh, err)
	}
	close(f.done)
	return true
}
