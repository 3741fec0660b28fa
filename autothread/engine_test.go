package autothread

import (
	"context"
	"sync"
	"testing"
	"time"

	"intro-bot/database"
	"intro-bot/models"
	"intro-bot/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	mu       sync.Mutex
	perms    map[string]int64 // user id -> permissions
	ownerID  string
	started  []string
	renamed  map[string]string
	messages map[string][]string
	dms      map[string][]string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		perms:    map[string]int64{"bot": discordgo.PermissionCreatePublicThreads},
		ownerID:  "owner",
		renamed:  map[string]string{},
		messages: map[string][]string{},
		dms:      map[string][]string{},
	}
}

func (f *fakePlatform) UserChannelPermissions(userID, channelID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms[userID], nil
}

func (f *fakePlatform) StartThread(channelID, messageID, name string, archive models.ArchiveDuration) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, name)
	return &discordgo.Channel{
		ID:             messageID,
		ParentID:       channelID,
		Name:           name,
		Type:           discordgo.ChannelTypeGuildPublicThread,
		ThreadMetadata: &discordgo.ThreadMetadata{AutoArchiveDuration: int(archive)},
	}, nil
}

func (f *fakePlatform) RenameThread(threadID, name string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed[threadID] = name
	return &discordgo.Channel{ID: threadID, Name: name}, nil
}

func (f *fakePlatform) SendMessage(channelID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakePlatform) GuildOwnerID(guildID string) (string, error) {
	return f.ownerID, nil
}

func (f *fakePlatform) SendDM(userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

// countingQueue records every enqueue and delegates to a real queue.
type countingQueue struct {
	mu    sync.Mutex
	names []string
	inner *queue.TaskQueue
}

func (c *countingQueue) Enqueue(name string, task queue.Task) *queue.Future {
	c.mu.Lock()
	c.names = append(c.names, name)
	c.mu.Unlock()
	return c.inner.Enqueue(name, task)
}

func (c *countingQueue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

type engineFixture struct {
	engine   *Engine
	platform *fakePlatform
	store    *database.GuildConfigStore
	queue    *countingQueue
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()
	store, err := database.NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	inner := queue.New(queue.WithInterTaskDelay(0), queue.WithBackoff(time.Millisecond, time.Millisecond))
	t.Cleanup(inner.Close)

	q := &countingQueue{inner: inner}
	p := newFakePlatform()
	return engineFixture{
		engine:   NewEngine(p, store, q, "bot", nil),
		platform: p,
		store:    store,
		queue:    q,
	}
}

func (f engineFixture) enable(t *testing.T, mutate func(*models.GuildConfig)) {
	t.Helper()
	_, err := f.store.Update("g1", func(c *models.GuildConfig) error {
		c.EnableChannel("c1")
		if mutate != nil {
			mutate(c)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestCreateThreadForMessage(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, func(c *models.GuildConfig) {
		c.ReplyMessage = "Thanks {displayName}!"
		c.ArchiveDuration = models.ArchiveOneWeek
	})

	m := Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Content: "My new project", AuthorDisplayName: "Sam"}
	thread, err := f.engine.CreateThreadForMessage(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, "m1", thread.ID)
	assert.Equal(t, "My new project", thread.Name)
	assert.Equal(t, int(models.ArchiveOneWeek), thread.ThreadMetadata.AutoArchiveDuration)
	assert.True(t, f.engine.IsAutomaticName("m1", "My new project"))

	require.Eventually(t, func() bool {
		f.platform.mu.Lock()
		defer f.platform.mu.Unlock()
		return len(f.platform.messages["m1"]) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, "Thanks Sam!", f.platform.messages["m1"][0])
}

func TestCreateThreadForMessageNotEligible(t *testing.T) {
	f := newEngineFixture(t)

	thread, err := f.engine.CreateThreadForMessage(context.Background(), Message{ID: "m1", GuildID: "g1", ChannelID: "c1"})
	require.NoError(t, err)
	assert.Nil(t, thread)
	assert.Zero(t, f.queue.count())
}

func TestCreateThreadForMessageMissingPermission(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, nil)
	f.platform.perms["bot"] = 0
	f.platform.perms["owner"] = discordgo.PermissionManageGuild

	thread, err := f.engine.CreateThreadForMessage(context.Background(), Message{ID: "m1", GuildID: "g1", ChannelID: "c1"})
	assert.ErrorIs(t, err, ErrMissingPermission)
	assert.Nil(t, thread)
	assert.Zero(t, f.queue.count())
	require.Len(t, f.platform.dms["owner"], 1)
	assert.Contains(t, f.platform.dms["owner"][0], "<#c1>")
}

func TestUpdateThreadTitle(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, nil)

	thread := &discordgo.Channel{ID: "m1", Name: "old title"}
	future, err := f.engine.UpdateThreadTitle(Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Content: "new title"}, thread)
	require.NoError(t, err)
	require.NotNil(t, future)

	_, err = future.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new title", f.platform.renamed["m1"])
}

func TestUpdateThreadTitleUnchanged(t *testing.T) {
	f := newEngineFixture(t)

	thread := &discordgo.Channel{ID: "m1", Name: "same"}
	future, err := f.engine.UpdateThreadTitle(Message{ID: "m1", GuildID: "g1", Content: "same"}, thread)
	require.NoError(t, err)
	assert.Nil(t, future)
	assert.Zero(t, f.queue.count())
}

func TestUpdateThreadTitleIgnoresThreadsOutsideEnabledChannels(t *testing.T) {
	f := newEngineFixture(t)

	thread := &discordgo.Channel{ID: "m9", ParentID: "c9", Name: "Hand-made discussion"}
	future, err := f.engine.UpdateThreadTitle(Message{ID: "m9", GuildID: "g1", ChannelID: "c9", Content: "edited text"}, thread)
	require.NoError(t, err)
	assert.Nil(t, future)
	assert.Zero(t, f.queue.count())
	assert.Empty(t, f.platform.renamed)
}

func TestUpdateThreadTitleFollowsTrackedThreadAfterDisable(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, nil)

	m := Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Content: "first draft"}
	thread, err := f.engine.CreateThreadForMessage(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, thread)

	_, err = f.store.Update("g1", func(c *models.GuildConfig) error {
		c.DisableChannel("c1")
		return nil
	})
	require.NoError(t, err)

	m.Content = "second draft"
	future, err := f.engine.UpdateThreadTitle(m, thread)
	require.NoError(t, err)
	require.NotNil(t, future)
	_, err = future.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second draft", f.platform.renamed["m1"])
}

func TestForgetDropsTrackedName(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, nil)

	thread, err := f.engine.CreateThreadForMessage(context.Background(), Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Content: "hello"})
	require.NoError(t, err)
	require.NotNil(t, thread)
	require.True(t, f.engine.Tracks("m1"))

	f.engine.Forget("m1")
	assert.False(t, f.engine.Tracks("m1"))
	assert.False(t, f.engine.IsAutomaticName("m1", "hello"))
}

func TestUpdateThreadTitleSkipsManuallyRenamed(t *testing.T) {
	f := newEngineFixture(t)
	f.enable(t, nil)

	require.NoError(t, f.engine.MarkThreadAsManuallyRenamed("g1", "m1"))

	thread := &discordgo.Channel{ID: "m1", Name: "Hand-picked name"}
	future, err := f.engine.UpdateThreadTitle(Message{ID: "m1", GuildID: "g1", Content: "edited content"}, thread)
	require.NoError(t, err)
	assert.Nil(t, future)
	assert.Zero(t, f.queue.count())

	f.store.Evict("g1")
	cfg, err := f.store.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, cfg.ManuallyRenamedThreads)
}
