package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"card-assistant/internal/agent"
	"card-assistant/internal/common/auth"
	awsclients "card-assistant/internal/common/aws"
	"card-assistant/internal/common/camunda"
	"card-assistant/internal/common/config"
	"card-assistant/internal/common/database"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/common/telemetry"
	"card-assistant/internal/common/validation"
	"card-assistant/internal/integrations/cardapi"
	"card-assistant/internal/integrations/handoff"
	"card-assistant/internal/integrations/knowledge"
	"card-assistant/internal/integrations/transactionapi"
	"card-assistant/internal/intents"
	"card-assistant/internal/intents/card"
	"card-assistant/internal/intents/transactions"
	"card-assistant/internal/intents/verification"
	"card-assistant/internal/monitoring/analytics"
	"card-assistant/internal/workflows"
	"card-assistant/pkg/registry"
)

// application is the assembled assistant and everything it owns.
type application struct {
	cfg       *config.Config
	log       logger.Logger
	telemetry *telemetry.Telemetry
	agent     *agent.Agent
	escalator *workflows.Escalator
	collector *analytics.Collector
	flusher   *analytics.Flusher
	handlers  []intents.Handler
	catalog   *registry.IntentCatalog

	pg      *database.PostgresClient
	rdb     *database.RedisClient
	closers []func() error
}

func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger, telOpts ...telemetry.Option) (*application, error) {
	app := &application{cfg: cfg, log: log}
	if err := app.build(ctx, telOpts); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *application) build(ctx context.Context, telOpts []telemetry.Option) error {
	cfg, log := a.cfg, a.log
	var err error

	a.telemetry = telemetry.New(cfg.App.Name, append([]telemetry.Option{telemetry.WithLogger(log)}, telOpts...)...)
	a.closers = append(a.closers, func() error { return a.telemetry.Shutdown(context.Background()) })

	var validator *validation.ParameterValidator
	if cfg.App.IntentCatalog != "" {
		if a.catalog, err = registry.LoadCatalog(cfg.App.IntentCatalog); err != nil {
			return fmt.Errorf("load intent catalog: %w", err)
		}
		if err = a.catalog.Validate(); err != nil {
			return fmt.Errorf("intent catalog %s: %w", cfg.App.IntentCatalog, err)
		}
		if validator, err = validation.NewParameterValidator(a.catalog.Schemas()); err != nil {
			return err
		}
	}

	cards, txns, err := a.backends(ctx)
	if err != nil {
		return err
	}

	verifier, err := a.verificationChain()
	if err != nil {
		return err
	}

	dispatchers, err := a.dispatchers(ctx)
	if err != nil {
		return err
	}
	a.escalator = workflows.NewEscalator(
		workflows.WithDispatchers(dispatchers...),
		workflows.WithLogger(log.WithFields(map[string]interface{}{"component": "escalation"})),
	)

	txnOpts := []transactions.Option{
		transactions.WithFraudChecks(cfg.Agent.EnableFraudChecks),
		transactions.WithLogger(log),
	}
	if validator != nil {
		txnOpts = append(txnOpts, transactions.WithValidator(validator))
	}
	lookup, err := a.knowledgeBase()
	if err != nil {
		return err
	}
	if lookup != nil {
		txnOpts = append(txnOpts, transactions.WithKnowledge(lookup))
	}

	a.handlers = []intents.Handler{
		verification.NewVerifyClientHandler(verifier, log),
		card.NewFreezeCardHandler(cards, a.escalator, log),
		card.NewActivateCardHandler(cards, a.escalator, log),
		transactions.NewListRecentTransactionsHandler(txns, txnOpts...),
		transactions.NewExplainChargeHandler(txns, txnOpts...),
	}
	if a.catalog != nil {
		if problems := registry.Check(a.catalog, a.handlers); len(problems) > 0 {
			return fmt.Errorf("intent catalog does not match handlers: %s", strings.Join(problems, "; "))
		}
	}

	provider, err := a.authProvider()
	if err != nil {
		return err
	}

	a.collector = analytics.NewCollector()
	if exporters := a.exporters(); len(exporters) > 0 {
		a.flusher = analytics.NewFlusher(a.collector, config.GetDuration(cfg.Analytics.FlushInterval), log, exporters...)
	}

	a.agent = agent.Create(a.handlers, a.collector, provider,
		agent.WithConfig(agent.ConfigFrom(cfg.Agent)),
		agent.WithTelemetry(a.telemetry),
		agent.WithLogger(log.WithFields(map[string]interface{}{"component": "agent"})),
	)
	return nil
}

func (a *application) backends(ctx context.Context) (cardapi.API, transactionapi.API, error) {
	if a.cfg.Backends.Mode == config.BackendModeDemo {
		return cardapi.NewDemo(), transactionapi.NewDemo(), nil
	}

	pg, err := database.NewPostgres(a.cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	a.pg = pg
	a.closers = append(a.closers, pg.Close)
	if err := pg.Ping(ctx); err != nil {
		return nil, nil, err
	}
	a.log.Info("postgres connected", map[string]interface{}{"host": a.cfg.Database.Postgres.Host})
	return cardapi.NewPostgres(pg.GetDB(), a.log), transactionapi.NewPostgres(pg.GetDB()), nil
}

// redis returns the shared Redis client, creating it on first use.
func (a *application) redis() *database.RedisClient {
	if a.rdb == nil {
		a.rdb = database.NewRedis(a.cfg.Database.Redis)
		a.closers = append(a.closers, a.rdb.Close)
	}
	return a.rdb
}

func (a *application) verificationChain() (verification.Service, error) {
	var chain verification.Chain
	for _, strategy := range a.cfg.Verification.Strategies {
		switch strategy {
		case verification.MethodDemo:
			chain = append(chain, verification.Demo{})
		case verification.MethodOTP:
			chain = append(chain, verification.NewOTP(a.redis().Client, a.cfg.Verification.OTPKeyPrefix))
		case verification.MethodVoiceprint:
			chain = append(chain, verification.Voiceprint{
				Threshold: a.cfg.Verification.VoiceMatchThreshold,
				Enabled:   a.cfg.Agent.EnableVoiceBiometrics,
			})
		default:
			return nil, fmt.Errorf("verification strategy %q is not supported", strategy)
		}
	}
	return chain, nil
}

func (a *application) knowledgeBase() (knowledge.MerchantLookup, error) {
	if !a.cfg.Agent.EnableRAG || len(a.cfg.Database.Elasticsearch.Addresses) == 0 {
		return nil, nil
	}
	es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	return knowledge.NewElasticsearch(es.Client, a.cfg.Knowledge.Index, config.GetDuration(a.cfg.Knowledge.Timeout), a.log), nil
}

func (a *application) dispatchers(ctx context.Context) ([]workflows.Dispatcher, error) {
	esc := a.cfg.Escalation
	var out []workflows.Dispatcher

	if esc.Store.Enabled {
		if a.pg == nil {
			return nil, fmt.Errorf("escalation store requires postgres")
		}
		out = append(out, handoff.NewTicketStore(a.pg.GetDB()))
	}

	if esc.SNS.Enabled || esc.SES.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, esc.AWSRegion)
		if err != nil {
			return nil, err
		}
		if esc.SNS.Enabled {
			out = append(out, handoff.NewSNSNotifier(awsclients.NewSNSClient(awsCfg), esc.SNS.TopicARN, a.log))
		}
		if esc.SES.Enabled {
			out = append(out, handoff.NewSESNotifier(awsclients.NewSESClient(awsCfg), esc.SES.FromEmail, esc.SES.DeskEmail, a.log))
		}
	}

	if esc.Zeebe.Enabled {
		zc, err := camunda.NewClient(esc.Zeebe.BrokerAddress)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, zc.Close)
		out = append(out, handoff.NewProcessLauncher(zc, esc.Zeebe.ProcessID, a.log))
	}
	return out, nil
}

func (a *application) authProvider() (agent.AuthenticationProvider, error) {
	switch a.cfg.Auth.Provider {
	case "", "static":
		return auth.Static{Allow: a.cfg.Auth.StaticAllow}, nil
	case "keycloak":
		kc := a.cfg.Auth.Keycloak
		return auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret, a.log), nil
	default:
		return nil, fmt.Errorf("auth provider %q is not supported", a.cfg.Auth.Provider)
	}
}

func (a *application) exporters() []analytics.Exporter {
	var out []analytics.Exporter
	if k := a.cfg.Analytics.Kafka; k.Enabled {
		exp := analytics.NewKafkaExporter(k.Brokers, k.Topic)
		a.closers = append(a.closers, exp.Close)
		out = append(out, exp)
	}
	if r := a.cfg.Analytics.Redis; r.Enabled {
		out = append(out, analytics.NewRedisExporter(a.redis().Client, r.ListKey))
	}
	return out
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
