package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/components/model"
	"github.com/tbxark/coachbot/bot"
	"github.com/tbxark/coachbot/config"
	"github.com/tbxark/coachbot/dialogue"
	"github.com/tbxark/coachbot/extract"
	"github.com/tbxark/coachbot/generate"
	"github.com/tbxark/coachbot/intent"
	"github.com/tbxark/coachbot/logging"
	"github.com/tbxark/coachbot/records"
	"github.com/tbxark/coachbot/session"
	"github.com/tbxark/coachbot/types"
)

func main() {
	confPath := flag.String("config", "config.json", "path to config file")
	envFile := flag.String("env", ".env", "path to .env file")
	flag.Parse()
	conf, err := config.Load(*confPath, *envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = startApp(ctx, conf)
	if err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, conf *config.Config) error {
	logger, logCloser, err := logging.New(logging.Options{
		Level:  conf.Log.Level,
		Format: conf.Log.Format,
		File:   conf.Log.File,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var chatModel model.ToolCallingChatModel
	needChatModel := conf.LLM.Backend == "eino" || conf.Extract.Mode == "llm" || conf.Extract.IntentMode == "llm"
	if needChatModel {
		cm, err := generate.NewChatModel(ctx, generate.ChatModelConfig{
			APIKey:  conf.LLM.APIKey,
			Model:   conf.LLM.Model,
			BaseURL: conf.LLM.BaseURL,
		})
		if err != nil {
			return err
		}
		chatModel = cm
	}

	extractor, err := newExtractor(conf, chatModel)
	if err != nil {
		return err
	}
	recognizer, err := newRecognizer(conf, chatModel)
	if err != nil {
		return err
	}
	generator, err := newGenerator(conf, chatModel)
	if err != nil {
		return err
	}
	recorder, err := newRecorder(ctx, conf, &closers)
	if err != nil {
		return err
	}
	opts := []dialogue.Option{
		dialogue.WithConfirmTimeout(conf.Dialogue.ConfirmTimeout.Std()),
		dialogue.WithTrendHint(conf.Dialogue.TrendHint),
	}
	if conf.Storage.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, conf.Storage.RedisURL)
		if err != nil {
			return err
		}
		closers = append(closers, client)
		ttl := conf.Storage.SessionTTL.Std()
		opts = append(opts,
			dialogue.WithPendingCache(session.NewRedisCache[*types.State](client, "coachbot", ttl)),
			dialogue.WithHistoryCache(session.NewRedisCache[types.WorkoutRequest](client, "coachbot", ttl)),
			dialogue.WithPlanCache(session.NewRedisCache[dialogue.CachedPlan](client, "coachbot", ttl)),
		)
		slog.Info("Using redis session store")
	}
	ctl, err := dialogue.NewController(extractor, recognizer, generator, recorder, opts...)
	if err != nil {
		return err
	}

	transport, err := newTransport(ctx, conf)
	if err != nil {
		return err
	}
	slog.Info("Starting coachbot", "transport", conf.Bot.Transport, "records", conf.Storage.Records, "extract", conf.Extract.Mode)
	return bot.New(transport, ctl, conf.Bot.HandleTimeout.Std()).Run(ctx)
}

func newExtractor(conf *config.Config, chatModel model.ToolCallingChatModel) (extract.Extractor, error) {
	local := extract.NewLocalExtractor(extract.WithDurationUnits(extract.DurationUnits(conf.Extract.DurationUnits)))
	if conf.Extract.Mode != "llm" {
		return local, nil
	}
	tool, err := extract.NewToolBasedExtractor(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based extractor: %w", err)
	}
	return extract.NewFailbackExtractor(tool, local), nil
}

func newRecognizer(conf *config.Config, chatModel model.ToolCallingChatModel) (intent.Recognizer, error) {
	local := intent.NewLocalIntentRecognizer()
	if conf.Extract.IntentMode != "llm" {
		return local, nil
	}
	tool, err := intent.NewToolBasedIntentRecognizer(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based intent recognizer: %w", err)
	}
	return intent.NewFailbackRecognizer(tool, local), nil
}

func newGenerator(conf *config.Config, chatModel model.ToolCallingChatModel) (generate.Generator, error) {
	completions := generate.NewCompletionsGenerator(conf.LLM.APIKey, conf.LLM.BaseURL, conf.LLM.Model)
	if conf.LLM.Backend == "completions" {
		return completions, nil
	}
	g, err := generate.NewChatModelGenerator(chatModel)
	if err != nil {
		return nil, err
	}
	return generate.NewFailbackGenerator(g, completions), nil
}

func newRecorder(ctx context.Context, conf *config.Config, closers *[]io.Closer) (records.Recorder, error) {
	switch conf.Storage.Records {
	case "sqlite":
		db, err := records.NewSQLiteRecorder(conf.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, db)
		return db, nil
	case "postgres":
		db, err := records.NewPostgresRecorder(ctx, conf.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, closerFunc(func() error {
			db.Close()
			return nil
		}))
		return db, nil
	default:
		return records.NewMemoryRecorder(), nil
	}
}

func newTransport(ctx context.Context, conf *config.Config) (bot.Transport, error) {
	switch conf.Bot.Transport {
	case "telegram":
		return bot.NewTelegramTransport(conf.Bot.TelegramToken)
	case "whatsapp":
		return bot.NewWhatsAppTransport(ctx, conf.Bot.WhatsAppStore, func(code string) {
			fmt.Println("Scan this code with WhatsApp to log in:")
			fmt.Println(code)
		})
	default:
		fmt.Println(dialogue.HelpMessage)
		return bot.NewConsoleTransport(os.Stdin, os.Stdout, "console"), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
