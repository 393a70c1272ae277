package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biferdou/grallix/internal/command"
)

func interaction(data discordgo.ApplicationCommandInteractionData, perms int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		Data:      data,
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "u1", Username: "alice"},
			Permissions: perms,
		},
	}}
}

func TestApplicationCommands(t *testing.T) {
	cmds := applicationCommands()
	require.Len(t, cmds, 3)

	task := cmds[0]
	assert.Equal(t, "task", task.Name)
	require.Len(t, task.Options, 3)
	add := task.Options[0]
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, add.Type)
	assert.Equal(t, "add", add.Name)
	require.Len(t, add.Options, 2)
	assert.Equal(t, "duedate", add.Options[1].Name)
	assert.True(t, add.Options[1].Required)

	setup := cmds[2]
	require.Len(t, setup.Options, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionBoolean, setup.Options[0].Type)
}

func TestToRequest_Subcommand(t *testing.T) {
	i := interaction(discordgo.ApplicationCommandInteractionData{
		Name: "task",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "add",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "description", Type: discordgo.ApplicationCommandOptionString, Value: "Write report"},
				{Name: "duedate", Type: discordgo.ApplicationCommandOptionString, Value: "2025-01-10"},
			},
		}},
	}, 0)

	req, ok := toRequest(i)
	require.True(t, ok)
	assert.Equal(t, command.Request{
		Command:    "task",
		Subcommand: "add",
		Options:    map[string]string{"description": "Write report", "duedate": "2025-01-10"},
		ChannelID:  "c1",
		UserID:     "u1",
		Username:   "alice",
	}, req)
}

func TestToRequest_SetupPermissions(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "setup",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "standups", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
			{Name: "weekly", Type: discordgo.ApplicationCommandOptionBoolean, Value: false},
		},
	}

	req, ok := toRequest(interaction(data, discordgo.PermissionManageChannels|discordgo.PermissionSendMessages))
	require.True(t, ok)
	assert.Empty(t, req.Subcommand)
	assert.Equal(t, map[string]string{"standups": "true", "weekly": "false"}, req.Options)
	assert.True(t, req.CanManageChannels)

	req, _ = toRequest(interaction(data, discordgo.PermissionSendMessages))
	assert.False(t, req.CanManageChannels)
}

func TestToRequest_IgnoresOtherInteractions(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}}
	_, ok := toRequest(i)
	assert.False(t, ok)
}

func TestToResponse(t *testing.T) {
	resp := toResponse(command.Response{Content: "done", Ephemeral: true})
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, "done", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Empty(t, resp.Data.Embeds)

	embed := command.StandupPromptEmbed()
	resp = toResponse(command.Response{Embed: embed})
	require.Len(t, resp.Data.Embeds, 1)
	e := resp.Data.Embeds[0]
	assert.Equal(t, "🌞 Daily Standup", e.Title)
	assert.Equal(t, command.ColorStandup, e.Color)
	require.NotNil(t, e.Footer)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "How to respond", e.Fields[0].Name)
	assert.Zero(t, resp.Data.Flags)
}
