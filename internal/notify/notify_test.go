package notify

import (
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"maelstrom/internal/common"
)

var alice = ethcommon.HexToAddress("0x000000000000000000000000000000000000a1")

func TestSubscribe_ReceivesPublishedReport(t *testing.T) {
	n := New(2)
	var tb tomb.Tomb
	tb.Go(func() error { return n.Run(&tb) })
	defer func() {
		tb.Kill(nil)
		_ = tb.Wait()
	}()

	_, ch := n.Subscribe(alice)
	n.Publish(Report{Trader: alice, Fills: []common.Fill{{MakerHash: "m"}}})

	select {
	case report := <-ch:
		require.Len(t, report.Fills, 1)
		assert.Equal(t, "m", report.Fills[0].MakerHash)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for report")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	n := New(1)
	var tb tomb.Tomb
	tb.Go(func() error { return n.Run(&tb) })
	defer func() {
		tb.Kill(nil)
		_ = tb.Wait()
	}()

	id, ch := n.Subscribe(alice)
	n.Unsubscribe(alice, id)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestPublish_UnknownTraderIsDropped(t *testing.T) {
	n := New(1)
	var tb tomb.Tomb
	tb.Go(func() error { return n.Run(&tb) })
	defer func() {
		tb.Kill(nil)
		_ = tb.Wait()
	}()

	// No subscribers registered; this must not panic or block.
	n.Publish(Report{Trader: alice})
	time.Sleep(10 * time.Millisecond)
}
