package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	concord "github.com/concord-labs/concord"
	"github.com/concord-labs/concord/discord"
)

// Minimal bot: connects every shard, caches state and replies to a
// ping command with the gateway permission resolution in action.
func main() {
	configuration := &concord.Configuration{
		Token: os.Getenv("TOKEN"),
	}

	configuration.Bot.Intents, _ = strconv.ParseInt(os.Getenv("INTENTS"), 10, 64)
	configuration.Caching.CacheUsers = true
	configuration.Caching.CacheMembers = true
	configuration.Logging.Level = "info"

	client := concord.NewConcord(configuration, os.Stdout)

	client.Handlers.OnReady(func(ctx concord.StateCtx, ready discord.Ready) {
		fmt.Printf("Shard %d ready as %s\n", ctx.ShardID, ready.User.Username)
	})

	client.Handlers.OnMessageCreate(func(ctx concord.StateCtx, message discord.Message) {
		if message.Content != "!ping" || message.GuildID == nil || message.Author == nil {
			return
		}

		permissions, err := client.State.MemberPermissions(*message.GuildID, message.ChannelID, discord.Snowflake(client.UserID.Load()))
		if err != nil || permissions&discord.PermissionSendMessages == 0 {
			return
		}

		_, err = discord.CreateMessage(client.Session, message.ChannelID, discord.MessageParams{
			Content: "pong!",
		})
		if err != nil {
			fmt.Printf("Failed to send message: %v\n", err)
		}
	})

	if err := client.Open(); err != nil {
		panic(err)
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-signalCh

	client.Close()
}
