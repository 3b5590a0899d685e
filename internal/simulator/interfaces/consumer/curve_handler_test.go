package consumer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/application"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/interfaces/consumer"
	"github.com/wyfcoding/simulatorcalc/pkg/mq"
)

type fakeImporter struct {
	errs  []error
	calls int
	last  application.ImportCurveCommand
}

func (f *fakeImporter) ImportCurve(_ context.Context, cmd application.ImportCurveCommand) (*application.CurveDTO, error) {
	f.calls++
	f.last = cmd
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &application.CurveDTO{Index: cmd.Index}, nil
}

type fakeDLQ struct {
	reasons []string
}

func (f *fakeDLQ) Send(_ context.Context, _ *mq.Message, reason string, _ error) error {
	f.reasons = append(f.reasons, reason)
	return nil
}

func newHandler(importer *fakeImporter, dlq *fakeDLQ) *consumer.CurveHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return consumer.NewCurveHandler(importer, dlq, logger).WithRetry(3, time.Millisecond, time.Millisecond)
}

func message(value string) *mq.Message {
	return &mq.Message{Topic: consumer.CurvePublishedTopic, Key: "CDI", Value: []byte(value)}
}

func TestCurveHandler_ImportsCurve(t *testing.T) {
	importer := &fakeImporter{}
	dlq := &fakeDLQ{}

	err := newHandler(importer, dlq).Handle(context.Background(), message(
		`{"reference_date":"2026-10-16","points":[{"business_days":21,"rate":0.11},{"business_days":252,"rate":0.13}]}`,
	))
	require.NoError(t, err)

	assert.Equal(t, 1, importer.calls)
	assert.Equal(t, "CDI", importer.last.Index)
	assert.Equal(t, "kafka", importer.last.Source)
	assert.Len(t, importer.last.Points, 2)
	assert.Empty(t, dlq.reasons)
}

func TestCurveHandler_MalformedPayloadGoesToDeadLetter(t *testing.T) {
	importer := &fakeImporter{}
	dlq := &fakeDLQ{}
	handler := newHandler(importer, dlq)

	require.NoError(t, handler.Handle(context.Background(), message(`not json`)))
	require.NoError(t, handler.Handle(context.Background(), message(`{"index":"CDI","reference_date":"16/10/2026"}`)))

	assert.Equal(t, 0, importer.calls)
	assert.Equal(t, []string{"decode", "decode"}, dlq.reasons)
}

func TestCurveHandler_InvalidCurveIsNotRetried(t *testing.T) {
	importer := &fakeImporter{errs: []error{domain.ErrCurveData}}
	dlq := &fakeDLQ{}

	require.NoError(t, newHandler(importer, dlq).Handle(context.Background(), message(
		`{"index":"CDI","reference_date":"2026-10-16","points":[]}`,
	)))

	assert.Equal(t, 1, importer.calls)
	assert.Equal(t, []string{"import"}, dlq.reasons)
}

func TestCurveHandler_RetriesTransientFailures(t *testing.T) {
	transient := errors.New("too many connections")
	importer := &fakeImporter{errs: []error{transient, transient, nil}}
	dlq := &fakeDLQ{}

	require.NoError(t, newHandler(importer, dlq).Handle(context.Background(), message(
		`{"index":"CDI","reference_date":"2026-10-16","points":[{"business_days":21,"rate":0.11}]}`,
	)))

	assert.Equal(t, 3, importer.calls)
	assert.Empty(t, dlq.reasons)
}

func TestCurveHandler_ExhaustedRetriesGoToDeadLetter(t *testing.T) {
	transient := errors.New("too many connections")
	importer := &fakeImporter{errs: []error{transient, transient, transient}}
	dlq := &fakeDLQ{}

	require.NoError(t, newHandler(importer, dlq).Handle(context.Background(), message(
		`{"index":"CDI","reference_date":"2026-10-16","points":[{"business_days":21,"rate":0.11}]}`,
	)))

	assert.Equal(t, 3, importer.calls)
	assert.Equal(t, []string{"retries exhausted"}, dlq.reasons)
}

type sliceReader struct {
	messages []*mq.Message
	cancel   context.CancelFunc
}

func (r *sliceReader) ReadMessage(ctx context.Context) (*mq.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func TestCurveHandler_RunUntilCancelled(t *testing.T) {
	importer := &fakeImporter{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &sliceReader{
		messages: []*mq.Message{
			message(`{"reference_date":"2026-10-15","points":[{"business_days":21,"rate":0.11}]}`),
			message(`{"reference_date":"2026-10-16","points":[{"business_days":21,"rate":0.12}]}`),
		},
		cancel: cancel,
	}

	err := newHandler(importer, &fakeDLQ{}).Run(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, 2, importer.calls)
}

func TestCurveHandler_RunLogsConfiguredTopic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := consumer.NewCurveHandler(&fakeImporter{}, nil, logger).WithTopic("b3.ettj.curves")
	require.NoError(t, handler.Run(ctx, &sliceReader{cancel: cancel}))

	assert.Contains(t, buf.String(), "topic=b3.ettj.curves")
	assert.NotContains(t, buf.String(), "topic="+consumer.CurvePublishedTopic+" ")
}
