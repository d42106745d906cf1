package eventsink

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderTrackingSink struct {
	seen []string
}

func (o *orderTrackingSink) Emit(ev Event) {
	o.seen = append(o.seen, eventName(ev))
}

func TestMultiSink_FansOutToEverySinkInOrder(t *testing.T) {
	a := &orderTrackingSink{}
	b := &orderTrackingSink{}
	m := MultiSink{Sinks: []Sink{a, nil, b}}

	m.Emit(BusDispatch{Time: time.Now()})
	m.Emit(PassengerArrival{Time: time.Now()})

	assert.Equal(t, []string{"bus_dispatch", "passenger_arrival"}, a.seen)
	assert.Equal(t, []string{"bus_dispatch", "passenger_arrival"}, b.seen)
}

func TestLogSink_PromotesPassengerDeniedToWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := LogSink{Logger: logger}

	sink.Emit(PassengerDenied{Time: time.Now(), PassengerID: "p1", BusID: "b1", StopID: 1})

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "passenger_denied")
}

func TestLogSink_PromotesBusFailureToError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := LogSink{Logger: logger}

	sink.Emit(BusFailure{Time: time.Now(), BusID: "b1", Reason: "vehicle fault"})

	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestLogSink_DefaultEventsLogAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := LogSink{Logger: logger}

	sink.Emit(BusArrival{Time: time.Now(), BusID: "b1", StopID: 1})

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "bus_arrival")
}

func TestLogSink_NilLoggerIsANoop(t *testing.T) {
	sink := LogSink{}
	assert.NotPanics(t, func() { sink.Emit(BusArrival{Time: time.Now()}) })
}

func TestRecordingSink_AppendsInEmitOrder(t *testing.T) {
	r := &RecordingSink{}
	r.Emit(BusDispatch{Time: time.Now()})
	r.Emit(BusArrival{Time: time.Now()})

	require.Len(t, r.Events, 2)
	_, ok0 := r.Events[0].(BusDispatch)
	_, ok1 := r.Events[1].(BusArrival)
	assert.True(t, ok0)
	assert.True(t, ok1)
}
