package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMessages(t *testing.T) {
	assert.Equal(t, "Total archive directory count: 3", QueueSizeMessage(3))
	assert.Equal(t, "zip archiving complete: dest/dir1.zip", CompletionMessage(Zip, "dest/dir1.zip"))
	assert.Equal(t, "7z archiving error occured!: boom", ErrorMessage(SevenZip, errors.New("boom")))
	assert.Equal(t, "xz archiving warning: cannot delete", WarningMessage(TarXz, "cannot delete"))
	assert.Equal(t, "Archiving Complete!", ArchivingCompleteMessage)
}

func TestProgressChannel_DeliversInOrder(t *testing.T) {
	p := NewProgressChannel()

	for i := range 100 {
		require.NoError(t, p.Send(fmt.Sprintf("event %d", i)))
	}
	p.Close()

	var got []string
	for msg := range p.Messages() {
		got = append(got, msg)
	}

	require.Len(t, got, 100)
	assert.Equal(t, "event 0", got[0])
	assert.Equal(t, "event 99", got[99])
}

func TestProgressChannel_ConcurrentSenders(t *testing.T) {
	p := NewProgressChannel()

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				assert.NoError(t, p.Send(fmt.Sprintf("%d-%d", i, j)))
			}
		}()
	}

	done := make(chan []string)
	go func() {
		var got []string
		for msg := range p.Messages() {
			got = append(got, msg)
		}
		done <- got
	}()

	wg.Wait()
	p.Close()

	assert.Len(t, <-done, 100)
}

func TestProgressChannel_SendAfterClose(t *testing.T) {
	p := NewProgressChannel()
	p.Close()
	p.Close()

	err := p.Send("late")
	assert.ErrorIs(t, err, ErrProgressClosed)

	_, ok := <-p.Messages()
	assert.False(t, ok)
}

func TestTrySend(t *testing.T) {
	t.Run("nil reporter is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() {
			TrySend(zap.NewNop(), nil, "event")
		})
	})

	t.Run("delivery failure is logged and swallowed", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		reporter := ReporterFunc(func(string) error { return errors.New("receiver gone") })

		TrySend(zap.New(core), reporter, "event")

		entries := logs.FilterMessage("dropping progress event").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "event", entries[0].ContextMap()["event"])
	})

	t.Run("delivers to reporter", func(t *testing.T) {
		var got []string
		reporter := ReporterFunc(func(msg string) error {
			got = append(got, msg)
			return nil
		})

		TrySend(zap.NewNop(), reporter, "event")

		assert.Equal(t, []string{"event"}, got)
	})
}
