package pipeline

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Result говорит конвейеру, продолжать ли обработку после стадии
type Result int

const (
	// Continue передаёт запрос следующей стадии
	Continue Result = iota
	// Halt означает, что стадия уже записала финальный ответ
	Halt
)

// Stage одна стадия предобработки запроса.
// Возвращает запрос (возможно, с новым контекстом), Continue/Halt или ошибку.
// Ошибка пропускает оставшиеся стадии и роутер и уходит в обработчик ошибок.
type Stage interface {
	Name() string
	Process(w http.ResponseWriter, r *http.Request) (*http.Request, Result, error)
}

type stageFunc struct {
	name string
	fn   func(w http.ResponseWriter, r *http.Request) (*http.Request, Result, error)
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Process(w http.ResponseWriter, r *http.Request) (*http.Request, Result, error) {
	return s.fn(w, r)
}

// NewStage собирает стадию из функции
func NewStage(name string, fn func(w http.ResponseWriter, r *http.Request) (*http.Request, Result, error)) Stage {
	return stageFunc{name: name, fn: fn}
}

// Adapt превращает обычный net/http middleware, который только выставляет
// заголовки или меняет запрос, в стадию. Если middleware не вызвал next,
// считается, что ответ уже записан.
func Adapt(name string, mw func(http.Handler) http.Handler) Stage {
	return NewStage(name, func(w http.ResponseWriter, r *http.Request) (*http.Request, Result, error) {
		var next *http.Request
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			next = r
		})).ServeHTTP(w, r)
		if next == nil {
			return r, Halt, nil
		}
		return next, Continue, nil
	})
}

// ErrorHandler финальная точка обработки ошибок
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandlerFunc обработчик, который возвращает ошибку вместо записи ответа.
// Ошибка уходит в обработчик ошибок конвейера.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f(w, r); err != nil {
		if !Forward(r, err) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// PanicError паника, пойманная в стадии или обработчике
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StageError ошибка, возвращённая стадией
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline упорядоченный список стадий, роутер и обработчик ошибок
type Pipeline struct {
	stages  []Stage
	router  http.Handler
	onError ErrorHandler
}

func New(router http.Handler, onError ErrorHandler, stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:  append([]Stage(nil), stages...),
		router:  router,
		onError: onError,
	}
}

// Stages имена стадий в порядке выполнения
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	st := &state{started: time.Now()}
	r = r.WithContext(withState(r.Context(), st))

	r, err := p.dispatch(ww, r)
	if err == nil {
		err = st.takeErr()
	}
	if err != nil {
		st.setHandled(err)
		p.handleError(ww, r, err)
	}
	st.finish(ww.Status(), ww.BytesWritten())
}

func (p *Pipeline) dispatch(w http.ResponseWriter, r *http.Request) (cur *http.Request, err error) {
	cur = r
	defer func() {
		if rvr := recover(); rvr != nil {
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			err = &PanicError{Value: rvr, Stack: debug.Stack()}
		}
	}()

	for _, s := range p.stages {
		next, res, serr := s.Process(w, cur)
		if next != nil {
			cur = next
		}
		if serr != nil {
			return cur, &StageError{Stage: s.Name(), Err: serr}
		}
		if res == Halt {
			return cur, nil
		}
	}

	if p.router == nil {
		return cur, nil
	}
	p.router.ServeHTTP(w, cur)
	return cur, nil
}

func (p *Pipeline) handleError(w http.ResponseWriter, r *http.Request, err error) {
	defer func() {
		if rvr := recover(); rvr != nil && !Written(w) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()
	if p.onError == nil {
		if !Written(w) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	p.onError(w, r, err)
}

// Written сообщает, записан ли уже статус ответа
func Written(w http.ResponseWriter) bool {
	if sw, ok := w.(interface{ Status() int }); ok {
		return sw.Status() != 0
	}
	return false
}
