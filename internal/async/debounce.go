// Пакет async — примитивы отложенного и фонового выполнения.
//
// debounce.go — единая реализация debounce для всех полей живого поиска.
// Окно тишины задаётся при создании, семантика одинакова для каждого
// потребителя: серия быстрых Trigger даёт ровно один запуск с последним
// значением после того, как ввод затих.
package async

import (
	"context"
	"sync"
	"time"
)

// Debouncer откладывает выполнение fn до окна тишины после последнего
// Trigger. Выполняется ровно один запуск на серию, с последним значением.
//
// Контекст, передаваемый в fn, отменяется при поступлении более нового
// значения или при Stop: запоздавшее завершение обязано проверить ctx
// и не применять свой результат. Сам запрос при этом не прерывается
// принудительно — отменяется только применение результата.
type Debouncer struct {
	delay time.Duration
	fn    func(ctx context.Context, value string)

	mu        sync.Mutex
	timer     *time.Timer
	value     string
	runCancel context.CancelFunc
	stopped   bool
}

// NewDebouncer создаёт Debouncer с заданным окном тишины.
// fn вызывается в отдельной горутине после окна тишины.
func NewDebouncer(delay time.Duration, fn func(ctx context.Context, value string)) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
	}
}

// Trigger регистрирует новое значение ввода и перезапускает окно тишины.
// Потокобезопасен.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.value = value
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// fire выполняется по истечении окна тишины: запускает fn с последним
// значением, отменяя применение результата предыдущего незавершённого запуска.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	value := d.value

	// Предыдущий незавершённый запуск устарел — его результат не применяется
	if d.runCancel != nil {
		d.runCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.runCancel = cancel
	d.mu.Unlock()

	go d.fn(ctx, value)
}

// Flush немедленно запускает отложенное выполнение, если оно ожидает
// окна тишины. Используется при явном подтверждении ввода (Enter).
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.mu.Unlock()

	if pending {
		d.fire()
	}
}

// Stop детерминированно останавливает Debouncer: отменяет ожидающий таймер
// и применение результата незавершённого запуска. Повторные Trigger после
// Stop игнорируются.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.runCancel != nil {
		d.runCancel()
		d.runCancel = nil
	}
}
