/*
 * Copyright 2026 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/comcast/fishyinventory/buildinfo"
	"github.com/comcast/fishyinventory/collector"
	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/config"
	"github.com/comcast/fishyinventory/inventory"
	"github.com/comcast/fishyinventory/logger"
	"github.com/comcast/fishyinventory/store"
	fishy_vault "github.com/comcast/fishyinventory/vault"
	"go.uber.org/zap"

	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	app = buildinfo.App
)

var (
	errNoCategory    = errors.New("no inventory category selected, pass at least one of --system --memory --processor --fan --power-supply --storage --network --all")
	errNoCredentials = errors.New("BMC credentials required, pass --user/--password or configure vault")
)

// flags of a single invocation
type flags struct {
	target   string
	username string
	password string

	system      bool
	memory      bool
	processor   bool
	fan         bool
	powerSupply bool
	storage     bool
	network     bool
	all         bool

	dump      bool
	pretty    bool
	outputDir string

	systemID        string
	bmcScheme       string
	bmcTimeout      time.Duration
	verifyTLS       bool
	proxy           string
	requestInterval time.Duration
	concurrency     int

	logLevel          string
	logMethod         string
	logFilePath       string
	logFileMaxSize    int
	logFileMaxBackups int
	logFileMaxAge     int
	vectorEndpoint    string

	vaultAddr     string
	vaultRoleID   string
	vaultSecretID string
	profile       string
	profiles      common.CredentialProfiles

	storePath    string
	metricsFile  string
	printVersion bool
	printInfo    bool
}

func newApp(f *flags) *kingpin.Application {
	a := kingpin.New(app, "Dell iDRAC hardware inventory over the Redfish API")
	a.HelpFlag.Short('h')

	a.Flag("target", "BMC address, host, host:port or URL").Short('t').Envar("BMC_TARGET").StringVar(&f.target)
	a.Flag("user", "BMC static username").Short('u').Default("").Envar("BMC_USERNAME").StringVar(&f.username)
	a.Flag("password", "BMC static password").Short('p').Default("").Envar("BMC_PASSWORD").StringVar(&f.password)

	a.Flag("system", "collect system information").Short('s').BoolVar(&f.system)
	a.Flag("memory", "collect memory information").Short('m').BoolVar(&f.memory)
	a.Flag("processor", "collect processor information").Short('c').BoolVar(&f.processor)
	a.Flag("fan", "collect fan information").Short('f').BoolVar(&f.fan)
	a.Flag("power-supply", "collect power supply information").BoolVar(&f.powerSupply)
	a.Flag("storage", "collect storage controller, disk and backplane information").Short('S').BoolVar(&f.storage)
	a.Flag("network", "collect network device information").Short('n').BoolVar(&f.network)
	a.Flag("all", "collect every category except fans").Short('a').BoolVar(&f.all)

	a.Flag("dump", "write the report to hw_inventory_<target>.json in --output.dir").BoolVar(&f.dump)
	a.Flag("pretty", "pretty print the report on stdout").BoolVar(&f.pretty)
	a.Flag("output.dir", "directory the report is written to with --dump").Default(".").Envar("OUTPUT_DIR").StringVar(&f.outputDir)

	a.Flag("system-id", "Redfish ComputerSystem id").Default(config.DefaultSystemID).Envar("BMC_SYSTEM_ID").StringVar(&f.systemID)
	a.Flag("scheme", "BMC Scheme to use").Default(config.DefaultScheme).Envar("BMC_SCHEME").StringVar(&f.bmcScheme)
	a.Flag("timeout", "BMC request timeout").Default(config.DefaultTimeout.String()).Envar("BMC_TIMEOUT").DurationVar(&f.bmcTimeout)
	a.Flag("verify-tls", "verify the BMC certificate").Default("false").Envar("BMC_VERIFY_TLS").BoolVar(&f.verifyTLS)
	a.Flag("proxy", "proxy URL for BMC requests, overrides HTTP(S)_PROXY and NO_PROXY").Default("").Envar("BMC_PROXY").StringVar(&f.proxy)
	a.Flag("request.interval", "minimum time between two BMC requests").Default(config.DefaultRequestInterval.String()).Envar("BMC_REQUEST_INTERVAL").DurationVar(&f.requestInterval)
	a.Flag("collector.concurrency", "number of resources of a category fetched concurrently").Default("1").Envar("COLLECTOR_CONCURRENCY").IntVar(&f.concurrency)

	a.Flag("log.level", "log level verbosity").PlaceHolder("[debug|info|warn|error]").Default("info").Envar("LOG_LEVEL").StringVar(&f.logLevel)
	a.Flag("log.method", "alternative method for logging in addition to stderr").PlaceHolder("[file|vector]").Default("").Envar("LOG_METHOD").StringVar(&f.logMethod)
	a.Flag("log.file-path", "directory path where log files are written if log-method is file").Default("/var/log/fishyinventory").Envar("LOG_FILE_PATH").StringVar(&f.logFilePath)
	a.Flag("log.file-max-size", "max file size in megabytes if log-method is file").Default("256").Envar("LOG_FILE_MAX_SIZE").IntVar(&f.logFileMaxSize)
	a.Flag("log.file-max-backups", "max file backups before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_BACKUPS").IntVar(&f.logFileMaxBackups)
	a.Flag("log.file-max-age", "max file age in days before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_AGE").IntVar(&f.logFileMaxAge)
	a.Flag("vector.endpoint", "vector endpoint to send structured json logs to").Default("http://0.0.0.0:4444").Envar("VECTOR_ENDPOINT").StringVar(&f.vectorEndpoint)

	a.Flag("vault.addr", "Vault instance address to get chassis credentials from").Default("https://vault.com").Envar("VAULT_ADDRESS").StringVar(&f.vaultAddr)
	a.Flag("vault.role-id", "Vault Role ID for AppRole").Default("").Envar("VAULT_ROLE_ID").StringVar(&f.vaultRoleID)
	a.Flag("vault.secret-id", "Vault Secret ID for AppRole").Default("").Envar("VAULT_SECRET_ID").StringVar(&f.vaultSecretID)
	a.Flag("credentials.profile", "name of the credential profile used to look up the BMC credentials").Default("").Envar("CREDENTIALS_PROFILE").StringVar(&f.profile)
	a.Flag("credentials.profiles",
		`profile(s) with all necessary parameters to obtain BMC credential from secrets backend, i.e.
  --credentials.profiles="
    profiles:
      - name: profile1
        mountPath: "kv2"
        path: "path/to/secret"
        userField: "user"
        passwordField: "password"
      ...
  "
--credentials.profiles='{"profiles":[{"name":"profile1","mountPath":"kv2","path":"path/to/secret","userField":"user","passwordField":"password"},...]}'`).
		Envar("CREDENTIALS_PROFILES").SetValue(&f.profiles)

	a.Flag("store.sqlite", "SQLite database the report is upserted into, keyed by service tag").Default("").Envar("STORE_SQLITE").StringVar(&f.storePath)
	a.Flag("metrics.textfile", "file the run metrics are written to in Prometheus text format").Default("").Envar("METRICS_TEXTFILE").StringVar(&f.metricsFile)
	a.Flag("version", "print build information").BoolVar(&f.printVersion)
	a.Flag("info", "print build information as JSON").BoolVar(&f.printInfo)

	return a
}

// categories maps the selection flags to report categories
func (f *flags) categories() []inventory.Category {
	var cats []inventory.Category
	if f.system || f.all {
		cats = append(cats, inventory.SystemInformation)
	}
	if f.memory || f.all {
		cats = append(cats, inventory.MemoryInformation)
	}
	if f.processor || f.all {
		cats = append(cats, inventory.ProcessorInformation)
	}
	if f.storage || f.all {
		cats = append(cats, inventory.StorageControllerInformation, inventory.StorageDisksInformation, inventory.BackplaneInformation)
	}
	if f.network || f.all {
		cats = append(cats, inventory.NetworkDeviceInformation)
	}
	if f.powerSupply || f.all {
		cats = append(cats, inventory.PowerSupplyInformation)
	}
	// fans are only collected when asked for
	if f.fan {
		cats = append(cats, inventory.FanInformation)
	}
	return cats
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var f flags
	a := newApp(&f)
	a.UsageWriter(stderr)
	a.ErrorWriter(stderr)

	if _, err := a.Parse(args); err != nil {
		fmt.Fprintf(stderr, "error parsing argument flags - %s\n", err.Error())
		return 1
	}

	if f.printVersion || f.printInfo {
		write := buildinfo.Print
		if f.printInfo {
			write = buildinfo.JSON
		}
		if err := write(stdout); err != nil {
			return 1
		}
		return 0
	}

	if f.target == "" {
		fmt.Fprintln(stderr, "error parsing argument flags - required flag --target not provided")
		return 1
	}
	categories := f.categories()
	if len(categories) == 0 {
		fmt.Fprintln(stderr, errNoCategory.Error())
		return 1
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	runID := logger.NewRunID()
	logConfig := logger.LoggerConfig{
		LogLevel:  f.logLevel,
		LogMethod: f.logMethod,
		LogFile: logger.LogFile{
			Path:       f.logFilePath,
			MaxSize:    f.logFileMaxSize,
			MaxBackups: f.logFileMaxBackups,
			MaxAge:     f.logFileMaxAge,
		},
		VectorEndpoint: f.vectorEndpoint,
		VerifyTLS:      f.verifyTLS,
		Output:         stderr,
	}

	if err := logger.Initialize(app, hostname, runID, logConfig); err != nil {
		fmt.Fprintf(stderr, "error initializing logger - log_method=%s vector_endpoint=%s log_file_path=%s - err=%s\n",
			f.logMethod, f.vectorEndpoint, f.logFilePath, err.Error())
		return 1
	}
	defer logger.Flush()

	log := zap.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := collect(ctx, &f, categories, stdout); err != nil {
		log.Error("inventory collection failed", zap.String("target", f.target), zap.Error(err))
		return 1
	}
	return 0
}

func collect(ctx context.Context, f *flags, categories []inventory.Category, stdout io.Writer) (err error) {
	log := zap.L()
	start := time.Now()

	cfg := &config.Config{
		BMCScheme:       f.bmcScheme,
		BMCTimeout:      f.bmcTimeout,
		VerifyTLS:       f.verifyTLS,
		Proxy:           f.proxy,
		User:            f.username,
		Pass:            f.password,
		SystemID:        f.systemID,
		RequestInterval: f.requestInterval,
		Concurrency:     f.concurrency,
	}
	config.NewConfig(cfg)

	if err := setupCredentials(ctx, f); err != nil {
		return err
	}

	metrics := collector.NewMetrics(f.target)
	client, err := collector.NewHTTPClient(cfg, metrics)
	if err != nil {
		return err
	}

	c, err := collector.NewCollector(ctx, f.target, f.profile, cfg, client, metrics)
	if err != nil {
		return err
	}

	log.Info("starting inventory collection", zap.String("target", f.target), zap.Int("categories", len(categories)),
		zap.Int("concurrency", cfg.Concurrency))

	if err := c.CheckSupported(); err != nil {
		return err
	}

	report, err := c.Run(categories)
	if err != nil {
		return err
	}

	out, err := report.Serialize(f.pretty)
	if err != nil {
		return err
	}

	// files written by this run are removed again when a later output fails
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range written {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warn("failed removing output of failed run", zap.String("path", path), zap.Error(rmErr))
			}
		}
	}()

	if f.dump {
		path := filepath.Join(f.outputDir, inventory.FileName(f.target))
		if err := report.Persist(path); err != nil {
			return err
		}
		written = append(written, path)
		log.Info("wrote inventory report", zap.String("path", path))
	}

	if f.metricsFile != "" {
		metrics.Finish(time.Since(start))
		if err := metrics.WriteTextfile(f.metricsFile); err != nil {
			return fmt.Errorf("error writing metrics textfile %s - %w", f.metricsFile, err)
		}
		written = append(written, f.metricsFile)
	}

	// the store goes last, a committed row cannot be taken back
	if f.storePath != "" {
		if err := upsert(ctx, f.storePath, f.target, report); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
		return fmt.Errorf("error writing inventory report - %w", err)
	}

	log.Info("finished inventory collection", zap.String("target", f.target), zap.String("service_tag", report.ServiceTag()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// setupCredentials resolves the BMC credentials from vault when an AppRole is
// configured, otherwise the static user and password are used.
func setupCredentials(ctx context.Context, f *flags) error {
	log := zap.L()

	if f.vaultRoleID != "" && f.vaultSecretID != "" {
		vault, err := fishy_vault.NewVaultAppRoleClient(ctx, fishy_vault.Parameters{
			Address:         f.vaultAddr,
			ApproleRoleID:   f.vaultRoleID,
			ApproleSecretID: f.vaultSecretID,
		})
		if err != nil {
			log.Error("failed initializing vault client", zap.Error(err),
				zap.String("vault_address", f.vaultAddr),
				zap.String("vault_role_id", f.vaultRoleID))
			return err
		}
		if err := vault.Login(ctx); err != nil {
			return err
		}

		// kept so credentials can be refreshed once we detect they are rotated
		common.ChassisCreds.Vault = vault
		common.ChassisCreds.Profiles = f.profiles

		if _, err := common.ChassisCreds.Resolve(ctx, f.profile, f.target); err != nil {
			return err
		}
		return nil
	}

	if f.username == "" || f.password == "" {
		return errNoCredentials
	}
	common.ChassisCreds.Set(f.target, &common.Credential{User: f.username, Pass: f.password})
	return nil
}

func upsert(ctx context.Context, path, target string, report *inventory.Report) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	payload, err := report.Serialize(false)
	if err != nil {
		return err
	}
	inserted, err := db.Upsert(ctx, report.ServiceTag(), target, payload)
	if err != nil {
		return err
	}

	key := report.ServiceTag()
	if key == "" {
		key = target
	}
	record, err := db.Get(ctx, key)
	if err != nil {
		return err
	}
	servers, err := db.Count(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("stored inventory report", zap.String("path", path), zap.String("service_tag", record.ServiceTag),
		zap.String("record_id", record.ID), zap.Time("first_seen", record.CreatedAt), zap.Bool("inserted", inserted),
		zap.Int("servers", servers))
	return nil
}
