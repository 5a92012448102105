package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type stateKey struct{}

// FinishInfo итог обработки запроса, передаётся в хуки OnFinish
type FinishInfo struct {
	Status int
	Bytes  int
	Took   time.Duration
	Err    error
}

// state живёт ровно один запрос и не разделяется между запросами
type state struct {
	mu      sync.Mutex
	started time.Time
	body    json.RawMessage
	cookies map[string]string
	err     error
	handled error
	hooks   []func(FinishInfo)
}

func fromRequest(r *http.Request) *state {
	if r == nil {
		return nil
	}
	st, _ := r.Context().Value(stateKey{}).(*state)
	return st
}

func withState(ctx context.Context, st *state) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StartedAt момент, когда запрос вошёл в конвейер
func StartedAt(r *http.Request) time.Time {
	if st := fromRequest(r); st != nil {
		return st.started
	}
	return time.Time{}
}

// SetBody сохраняет разобранное JSON тело запроса
func SetBody(r *http.Request, body json.RawMessage) {
	if st := fromRequest(r); st != nil {
		st.mu.Lock()
		st.body = body
		st.mu.Unlock()
	}
}

// Body возвращает JSON тело, разобранное стадией парсинга
func Body(r *http.Request) (json.RawMessage, bool) {
	st := fromRequest(r)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.body, st.body != nil
}

func SetCookies(r *http.Request, cookies map[string]string) {
	if st := fromRequest(r); st != nil {
		st.mu.Lock()
		st.cookies = cookies
		st.mu.Unlock()
	}
}

// Cookies возвращает куки, разобранные стадией CookieParser
func Cookies(r *http.Request) map[string]string {
	st := fromRequest(r)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cookies
}

func Cookie(r *http.Request, name string) (string, bool) {
	v, ok := Cookies(r)[name]
	return v, ok
}

// OnFinish регистрирует хук, который вызовется после отправки ответа.
// Хуки вызываются в обратном порядке регистрации.
func OnFinish(r *http.Request, fn func(FinishInfo)) bool {
	st := fromRequest(r)
	if st == nil {
		return false
	}
	st.mu.Lock()
	st.hooks = append(st.hooks, fn)
	st.mu.Unlock()
	return true
}

// Forward передаёт ошибку в обработчик ошибок конвейера.
// Сохраняется только первая ошибка. false, если запрос идёт мимо конвейера.
func Forward(r *http.Request, err error) bool {
	st := fromRequest(r)
	if st == nil {
		return false
	}
	st.mu.Lock()
	if st.err == nil {
		st.err = err
	}
	st.mu.Unlock()
	return true
}

func (st *state) takeErr() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *state) setHandled(err error) {
	st.mu.Lock()
	st.handled = err
	st.mu.Unlock()
}

func (st *state) finish(status, bytes int) {
	st.mu.Lock()
	hooks := st.hooks
	st.hooks = nil
	info := FinishInfo{Status: status, Bytes: bytes, Took: time.Since(st.started), Err: st.handled}
	st.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		runHook(hooks[i], info)
	}
}

// runHook паника в хуке не должна ломать остальные хуки
func runHook(fn func(FinishInfo), info FinishInfo) {
	defer func() { _ = recover() }()
	fn(info)
}
