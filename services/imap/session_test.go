package imap

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	er "github.com/customeros/mailchecker/internal/errors"
)

func connect(t *testing.T, fake *fakeClient) *Session {
	t.Helper()
	session, err := newTestDialer(fake, nil).Connect(context.Background())
	require.NoError(t, err)
	return session.(*Session)
}

func subscribe(t *testing.T, fake *fakeClient) *Session {
	t.Helper()
	session := connect(t, fake)
	require.NoError(t, session.SelectMailbox(context.Background(), false))
	require.NoError(t, session.BeginSubscription(context.Background()))
	return session
}

func kinds(events []interfaces.Event) []enum.EventKind {
	var result []enum.EventKind
	for _, e := range events {
		result = append(result, e.Kind)
	}
	return result
}

func TestConnect(t *testing.T) {
	fake := newFakeClient()

	session := connect(t, fake)

	assert.NotEmpty(t, session.Id())
	logins, logouts, _ := fake.counts()
	assert.Equal(t, 1, logins)
	assert.Equal(t, 0, logouts)
}

func TestConnect_LoginRejected(t *testing.T) {
	fake := newFakeClient()
	fake.loginErr = errors.New("[AUTHENTICATIONFAILED] Invalid credentials")

	session, err := newTestDialer(fake, nil).Connect(context.Background())

	assert.Nil(t, session)
	assert.Equal(t, er.KindFatal, er.KindOf(err))
	_, logouts, _ := fake.counts()
	assert.Equal(t, 1, logouts)
}

func TestConnect_DialFailure(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	session, err := newTestDialer(newFakeClient(), dialErr).Connect(context.Background())

	assert.Nil(t, session)
	assert.Equal(t, er.KindTransient, er.KindOf(err))
}

func TestTotalMessageCount(t *testing.T) {
	fake := newFakeClient()
	session := connect(t, fake)

	_, err := session.TotalMessageCount(context.Background())
	assert.ErrorIs(t, err, er.ErrNotSelected)

	require.NoError(t, session.SelectMailbox(context.Background(), true))
	count, err := session.TotalMessageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTotalMessageCount_ConnectionLost(t *testing.T) {
	fake := newFakeClient()
	session := connect(t, fake)
	require.NoError(t, session.SelectMailbox(context.Background(), true))

	fake.searchErr = errors.New("imap: connection closed")
	fake.drop()

	_, err := session.TotalMessageCount(context.Background())
	assert.Equal(t, er.KindTransient, er.KindOf(err))
}

func TestBeginSubscription_RequiresSelect(t *testing.T) {
	session := connect(t, newFakeClient())

	err := session.BeginSubscription(context.Background())
	assert.ErrorIs(t, err, er.ErrNotSelected)
}

func TestBeginSubscription_Twice(t *testing.T) {
	session := subscribe(t, newFakeClient())

	err := session.BeginSubscription(context.Background())
	assert.ErrorIs(t, err, er.ErrAlreadySubscribed)
}

func TestWaitForEvents_Timeout(t *testing.T) {
	session := subscribe(t, newFakeClient())

	events, err := session.WaitForEvents(context.Background(), 20*time.Millisecond)

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWaitForEvents_NewMessages(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)

	fake.updates <- existsUpdate(4)
	fake.updates <- recentUpdate(1)
	fake.updates <- existsUpdate(4)

	events, err := session.WaitForEvents(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []enum.EventKind{enum.EventMessageExists, enum.EventOther, enum.EventOther}, kinds(events))

	fake.updates <- &client.ExpungeUpdate{SeqNum: 1}
	fake.updates <- existsUpdate(4)

	events, err = session.WaitForEvents(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []enum.EventKind{enum.EventOther, enum.EventMessageExists}, kinds(events))
}

func TestWaitForEvents_EveryExistsInBatchCounts(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)

	fake.updates <- existsUpdate(4)
	fake.updates <- existsUpdate(5)

	events, err := session.WaitForEvents(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []enum.EventKind{enum.EventMessageExists, enum.EventMessageExists}, kinds(events))
	assert.Equal(t, "EXISTS 5", events[1].Detail)
}

func TestWaitForEvents_Bye(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)

	fake.updates <- &client.StatusUpdate{Status: &imap.StatusResp{Type: imap.StatusRespBye, Info: "Server shutting down"}}

	events, err := session.WaitForEvents(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []enum.EventKind{enum.EventSessionTerminated}, kinds(events))
}

func TestWaitForEvents_ByeThenClose(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)
	<-fake.idling

	fake.updates <- &client.StatusUpdate{Status: &imap.StatusResp{Type: imap.StatusRespBye, Info: "Autologout"}}
	fake.drop()

	events, err := session.WaitForEvents(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Contains(t, kinds(events), enum.EventSessionTerminated)
}

func TestWaitForEvents_ConnectionDropped(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)
	<-fake.idling

	fake.drop()

	events, err := session.WaitForEvents(context.Background(), time.Second)
	require.Error(t, err)
	assert.Empty(t, events)
	assert.Equal(t, er.KindTransient, er.KindOf(err))
}

func TestWaitForEvents_IdleFailsOnDeadConnection(t *testing.T) {
	fake := newFakeClient()
	fake.idleErr = errors.New("imap: connection closed")
	session := subscribe(t, fake)
	<-fake.idling

	fake.drop()

	_, err := session.WaitForEvents(context.Background(), time.Second)
	assert.Equal(t, er.KindTransient, er.KindOf(err))
}

func TestEndSubscription_DrainsAfterIdleEnded(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)
	<-fake.idling

	fake.drop()
	_, err := session.WaitForEvents(context.Background(), time.Second)
	require.Error(t, err)

	session.EndSubscription(context.Background())

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 2*updatesBufferSize; i++ {
			fake.updates <- existsUpdate(uint32(i))
		}
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("updates channel is not drained")
	}
	require.NoError(t, session.Close(context.Background()))
}

func TestClose_Once(t *testing.T) {
	fake := newFakeClient()
	session := subscribe(t, fake)
	<-fake.idling

	require.NoError(t, session.Close(context.Background()))
	require.NoError(t, session.Close(context.Background()))

	_, logouts, terminates := fake.counts()
	assert.Equal(t, 1, logouts)
	assert.Equal(t, 0, terminates)

	_, err := session.TotalMessageCount(context.Background())
	assert.ErrorIs(t, err, er.ErrSessionClosed)
}

func TestClose_LogoutFailureDropsConnection(t *testing.T) {
	fake := newFakeClient()
	fake.logoutErr = errors.New("imap: connection reset")
	session := connect(t, fake)

	err := session.Close(context.Background())

	assert.Error(t, err)
	_, logouts, terminates := fake.counts()
	assert.Equal(t, 1, logouts)
	assert.Equal(t, 1, terminates)
}
