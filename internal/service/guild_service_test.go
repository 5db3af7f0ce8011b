package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vermion/dashboard/internal/adapter/store/storefakes"
	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/service"
)

// fakeBot is a scriptable port.BotGateway.
type fakeBot struct {
	presence map[string]bool
	channels []domain.Channel
	sent     []string
}

func (f *fakeBot) GuildPresent(_ context.Context, guildID string) (bool, error) {
	return f.presence[guildID], nil
}

func (f *fakeBot) ListChannels(_ context.Context, _ string) ([]domain.Channel, error) {
	return f.channels, nil
}

func (f *fakeBot) SendMessage(_ context.Context, channelID, content string) error {
	f.sent = append(f.sent, channelID+":"+content)
	return nil
}

func (f *fakeBot) SendEmbed(_ context.Context, channelID string, embed *domain.Embed) error {
	f.sent = append(f.sent, channelID+":embed:"+embed.Title)
	return nil
}

func seedMemberships(t *testing.T, fakeStore *storefakes.FakeStore, userID string, memberships []domain.GuildMembership) {
	t.Helper()
	require.NoError(t, fakeStore.UpsertUser(context.Background(), &domain.User{ID: userID, Username: "u"}))
	require.NoError(t, fakeStore.ReplaceMemberships(context.Background(), userID, memberships))
}

func TestAuthorize(t *testing.T) {
	fakeStore := storefakes.NewFakeStore()
	svc := service.NewGuildService(fakeStore, &fakeBot{})

	seedMemberships(t, fakeStore, "42", []domain.GuildMembership{
		{GuildID: "owner-guild", Owner: true},
		{GuildID: "admin-guild", Permissions: domain.PermissionAdministrator},
		{GuildID: "manager-guild", Permissions: domain.PermissionManageGuild},
		{GuildID: "member-guild", Permissions: 1 << 10}, // VIEW_CHANNEL only
	})

	tests := []struct {
		name    string
		userID  string
		guildID string
		want    bool
	}{
		{"owner", "42", "owner-guild", true},
		{"administrator bit", "42", "admin-guild", true},
		{"manage guild bit", "42", "manager-guild", true},
		{"plain member", "42", "member-guild", false},
		{"no membership row", "42", "unknown-guild", false},
		{"unknown user", "99", "owner-guild", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Authorize(context.Background(), tt.userID, tt.guildID)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	fakeStore := storefakes.NewFakeStore()

	set := []domain.GuildMembership{
		{GuildID: "1", GuildName: "A", Permissions: domain.PermissionManageGuild},
		{GuildID: "2", GuildName: "B", Owner: true},
	}
	seedMemberships(t, fakeStore, "42", set)
	first, err := fakeStore.ListMemberships(context.Background(), "42")
	require.NoError(t, err)

	require.NoError(t, fakeStore.ReplaceMemberships(context.Background(), "42", set))
	second, err := fakeStore.ListMemberships(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSyncIsFullReplace(t *testing.T) {
	fakeStore := storefakes.NewFakeStore()

	seedMemberships(t, fakeStore, "42", []domain.GuildMembership{
		{GuildID: "1", Owner: true},
		{GuildID: "2", Owner: true},
	})
	require.NoError(t, fakeStore.ReplaceMemberships(context.Background(), "42", nil))

	memberships, err := fakeStore.ListMemberships(context.Background(), "42")
	require.NoError(t, err)
	require.Empty(t, memberships)
}

func TestConcurrentReadsNeverObserveMixedSets(t *testing.T) {
	fakeStore := storefakes.NewFakeStore()

	oldSet := []domain.GuildMembership{
		{GuildID: "old-1", Owner: true},
		{GuildID: "old-2", Owner: true},
	}
	newSet := []domain.GuildMembership{
		{GuildID: "new-1", Owner: true},
		{GuildID: "new-2", Owner: true},
		{GuildID: "new-3", Owner: true},
	}
	seedMemberships(t, fakeStore, "42", oldSet)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			set := oldSet
			if i%2 == 1 {
				set = newSet
			}
			_ = fakeStore.ReplaceMemberships(context.Background(), "42", set)
		}
	}()

	const readers = 8
	const readsPerReader = 200
	violations := make(chan int, readers)
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bad := 0
			for i := 0; i < readsPerReader; i++ {
				memberships, err := fakeStore.ListMemberships(context.Background(), "42")
				if err != nil || (len(memberships) != len(oldSet) && len(memberships) != len(newSet)) {
					bad++
					continue
				}
				// Every row must belong to the same snapshot.
				wantOld := memberships[0].GuildID == "old-1" || memberships[0].GuildID == "old-2"
				for _, m := range memberships {
					isOld := m.GuildID == "old-1" || m.GuildID == "old-2"
					if isOld != wantOld {
						bad++
						break
					}
				}
			}
			violations <- bad
		}()
	}

	total := 0
	for r := 0; r < readers; r++ {
		total += <-violations
	}
	close(stop)
	wg.Wait()

	require.Zero(t, total, "readers must see either the old or the new set, never a mix")
}

func TestManagedGuildsFiltersAndAnnotatesPresence(t *testing.T) {
	fakeStore := storefakes.NewFakeStore()
	botGateway := &fakeBot{presence: map[string]bool{"1": true}}
	svc := service.NewGuildService(fakeStore, botGateway)

	seedMemberships(t, fakeStore, "42", []domain.GuildMembership{
		{GuildID: "1", GuildName: "With Bot", Permissions: domain.PermissionManageGuild},
		{GuildID: "2", GuildName: "Without Bot", Owner: true},
		{GuildID: "3", GuildName: "Not Managed", Permissions: 0},
	})

	guilds, err := svc.ManagedGuilds(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, guilds, 2)

	byID := map[string]domain.ManagedGuild{}
	for _, g := range guilds {
		byID[g.GuildID] = g
	}
	require.True(t, byID["1"].BotPresent)
	require.False(t, byID["2"].BotPresent)
	require.NotContains(t, byID, "3")
}
