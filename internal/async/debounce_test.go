package async

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder — накапливает вызовы fn для проверок.
type recorder struct {
	mu     sync.Mutex
	values []string
	ctxs   []context.Context
}

func (r *recorder) fn(ctx context.Context, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
	r.ctxs = append(r.ctxs, ctx)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// waitFor опрашивает условие до таймаута.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// TestDebouncer_SingleRunPerBurst — серия быстрых Trigger даёт ровно один
// запуск с последним значением.
func TestDebouncer_SingleRunPerBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fn)
	defer d.Stop()

	// Имитация живого ввода: значения приходят чаще окна тишины
	for _, v := range []string{"и", "ив", "ива", "иван", "иванов"} {
		d.Trigger(v)
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 },
		"ожидался ровно один запуск после окна тишины")

	if got := rec.snapshot(); got[0] != "иванов" {
		t.Errorf("ожидалось последнее значение 'иванов', получено %q", got[0])
	}

	// Дополнительное ожидание: запусков больше не появляется
	time.Sleep(60 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("ожидался один запуск, получено %d: %v", len(got), got)
	}
}

// TestDebouncer_NewBurstAfterQuiet — новая серия после тишины даёт новый запуск.
func TestDebouncer_NewBurstAfterQuiet(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fn)
	defer d.Stop()

	d.Trigger("первый")
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 }, "первый запуск не произошёл")

	d.Trigger("второй")
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 }, "второй запуск не произошёл")

	got := rec.snapshot()
	if got[0] != "первый" || got[1] != "второй" {
		t.Errorf("ожидались значения [первый второй], получены %v", got)
	}
}

// TestDebouncer_StaleRunCancelled — при новом запуске контекст предыдущего
// отменяется: запоздавший результат не должен применяться.
func TestDebouncer_StaleRunCancelled(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(10*time.Millisecond, rec.fn)
	defer d.Stop()

	d.Trigger("старый")
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 }, "первый запуск не произошёл")

	d.Trigger("новый")
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 }, "второй запуск не произошёл")

	rec.mu.Lock()
	staleCtx := rec.ctxs[0]
	freshCtx := rec.ctxs[1]
	rec.mu.Unlock()

	if staleCtx.Err() == nil {
		t.Error("контекст первого запуска должен быть отменён")
	}
	if freshCtx.Err() != nil {
		t.Error("контекст последнего запуска не должен быть отменён")
	}
}

// TestDebouncer_Flush — Flush немедленно запускает отложенное выполнение.
func TestDebouncer_Flush(t *testing.T) {
	rec := &recorder{}
	// Большое окно: без Flush запуск не успеет произойти
	d := NewDebouncer(10*time.Second, rec.fn)
	defer d.Stop()

	d.Trigger("enter")
	d.Flush()

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 }, "Flush не запустил выполнение")

	if got := rec.snapshot(); got[0] != "enter" {
		t.Errorf("ожидалось значение 'enter', получено %q", got[0])
	}
}

// TestDebouncer_FlushWithoutPending — Flush без ожидающего таймера ничего не делает.
func TestDebouncer_FlushWithoutPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(10*time.Millisecond, rec.fn)
	defer d.Stop()

	d.Flush()

	time.Sleep(30 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("запусков быть не должно, получено %v", got)
	}
}

// TestDebouncer_Stop — после Stop отложенный запуск не происходит,
// а Trigger игнорируется.
func TestDebouncer_Stop(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fn)

	d.Trigger("до остановки")
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("запусков после Stop быть не должно, получено %v", got)
	}

	d.Trigger("после остановки")
	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Trigger после Stop должен игнорироваться, получено %v", got)
	}
}
