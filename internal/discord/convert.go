package discord

import (
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/biferdou/grallix/internal/command"
)

// applicationCommands converts the command surface into slash commands.
func applicationCommands() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(command.Definitions))
	for _, d := range command.Definitions {
		cmd := &discordgo.ApplicationCommand{
			Name:        d.Name,
			Description: d.Description,
			Options:     options(d.Options),
		}
		for _, sub := range d.Subcommands {
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        sub.Name,
				Description: sub.Description,
				Options:     options(sub.Options),
			})
		}
		out = append(out, cmd)
	}
	return out
}

func options(in []command.Option) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(in))
	for _, o := range in {
		t := discordgo.ApplicationCommandOptionString
		if o.Type == command.OptionBool {
			t = discordgo.ApplicationCommandOptionBoolean
		}
		out = append(out, &discordgo.ApplicationCommandOption{
			Type:        t,
			Name:        o.Name,
			Description: o.Description,
			Required:    o.Required,
		})
	}
	return out
}

// toRequest translates a slash command interaction. It reports false
// for interactions that are not application commands.
func toRequest(i *discordgo.InteractionCreate) (command.Request, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return command.Request{}, false
	}
	data := i.ApplicationCommandData()

	req := command.Request{
		Command:   data.Name,
		Options:   map[string]string{},
		ChannelID: i.ChannelID,
	}

	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		req.Subcommand = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionBoolean:
			req.Options[o.Name] = strconv.FormatBool(o.BoolValue())
		case discordgo.ApplicationCommandOptionString:
			req.Options[o.Name] = o.StringValue()
		}
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		req.UserID = i.Member.User.ID
		req.Username = i.Member.User.Username
		req.CanManageChannels = i.Member.Permissions&discordgo.PermissionManageChannels != 0
	case i.User != nil:
		req.UserID = i.User.ID
		req.Username = i.User.Username
	}
	return req, true
}

// toResponse builds the interaction reply for resp.
func toResponse(resp command.Response) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: resp.Content}
	if resp.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{toEmbed(resp.Embed)}
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func toEmbed(e *command.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}
