// Command vdbvalidate walks one or more columnar archive paths, checking
// their structural integrity (manifest MD5, blob CRC32, index sortedness)
// and, when requested, their semantic consistency (SRA/FASTQ table shape,
// sum-of-parts law, referential integrity, the secondary-alignment deep
// data check).
//
// Modeled on a package-level commands table with a single runCmd dispatch,
// SIGINT wired to cooperative cancellation, and a raised file-descriptor
// limit before the run starts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/jacobsa/vdbvalidate/config"
	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/archivereader/envelope"
	"github.com/jacobsa/vdbvalidate/internal/progress"
	"github.com/jacobsa/vdbvalidate/internal/report"
	"github.com/jacobsa/vdbvalidate/internal/semantics"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
	"github.com/jacobsa/vdbvalidate/internal/walker"
	"github.com/jacobsa/vdbvalidate/internal/wiring"

	"github.com/jacobsa/aws/s3"
)

func main() {
	flag.Parse()

	log.SetFlags(log.Lmicroseconds | log.Lshortfile)

	if err := raiseRlimit(); err != nil {
		log.Printf("raiseRlimit: %v (continuing anyway)", err)
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Missing command name. Choices are:")
		for _, cmd := range commands {
			fmt.Fprintf(os.Stderr, "  %s\n", cmd.Name)
		}
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		log.Printf("received interrupt, cancelling...")
		cancel()
	}()

	err := runCmd(ctx, args[0], args[1:])
	os.Exit(exitCode(err))
}

func runValidate(ctx context.Context, args []string) error {
	cfg := config.Defaults()

	if *fConfigPath != "" {
		data, err := os.ReadFile(*fConfigPath)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		parsed, err := config.Parse(data)
		if err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		cfg = parsed.Options
	}

	overlayFlags(&cfg)

	if err := config.Validate(&cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if len(args) < 1 {
		return fmt.Errorf("usage: vdbvalidate validate [options] <archive-path> [<archive-path> ...]")
	}

	agg := report.NewAggregator()

	for _, path := range args {
		if err := validateOne(ctx, path, cfg, agg); err != nil {
			if verrors.IsFatal(err) {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return verrors.New(verrors.KindCancelled, "run", "", "validate", "", ctx.Err())
		default:
		}
	}

	if err := agg.FirstError(); err != nil {
		return err
	}
	return nil
}

func validateOne(ctx context.Context, path string, cfg config.ValidatorOptions, agg *report.Aggregator) error {
	rh, err := probeArchive(ctx, path)
	if err != nil {
		agg.Record(err)
		return err
	}
	defer rh.Closer()

	counter := progress.NewCounter(0)
	poller := progress.NewPoller(counter, os.Stderr, 2*time.Second)
	stop := make(chan struct{})
	go poller.Run(stop)
	defer func() {
		counter.Stop()
		close(stop)
	}()

	sink := &countingSink{inner: report.NewLogSink(nil), counter: counter}

	walkOpts := walker.Options{
		CheckMD5:     cfg.MD5,
		CheckBlobCRC: cfg.BlobCRC,
		CheckIndex:   cfg.Index,
		MD5Required:  cfg.MD5,
		Exhaustive:   cfg.Exhaustive,
	}

	if err := walker.Walk(ctx, rh.Root, walkOpts, sink); err != nil {
		agg.Record(err)
		if verrors.IsFatal(err) {
			return err
		}
	}

	if cfg.ConsistencyCheck {
		semOpts := semantics.DefaultOptions()
		semOpts.Exhaustive = cfg.Exhaustive
		semOpts.RIBudgetBytes = 0
		if !cfg.ReferentialIntegrity {
			semOpts.CheckReferentialIntegrity = false
			semOpts.CheckSeqPrimaryJoin = false
		}
		semOpts.SDC.RowBudget = cfg.SDCRows
		semOpts.SDC.PLenThreshold = cfg.SDCPLenThreshold
		semOpts.SDC.PLenThresholdCount = cfg.SDCPLenThresholdCount

		for _, e := range semantics.Validate(ctx, rh.Root, semOpts) {
			agg.Record(e)
		}
	} else if cfg.ReferentialIntegrity {
		semOpts := semantics.Options{CheckReferentialIntegrity: true, Exhaustive: cfg.Exhaustive}
		for _, e := range semantics.Validate(ctx, rh.Root, semOpts) {
			agg.Record(e)
		}
	}

	return agg.FirstError()
}

// probeArchive resolves path against a remote bucket backend when
// -gcs-bucket/-s3-bucket was given, falling back to archivereader.Probe's
// local-path classification otherwise. If both -gcs-bucket and -s3-bucket
// are set, -gcs-bucket is used.
func probeArchive(ctx context.Context, path string) (archivereader.RootHandle, error) {
	switch {
	case *fGCSBucket != "":
		backend, err := wiring.OpenGCSBackend(ctx, wiring.GCSOptions{
			BucketName: *fGCSBucket,
			KeyFile:    *fGCSKeyFile,
		})
		if err != nil {
			return archivereader.RootHandle{}, fmt.Errorf("opening GCS bucket %s: %w", *fGCSBucket, err)
		}
		return archivereader.ProbeGCS(ctx, backend, path, envelope.Key(*fKey))

	case *fS3Bucket != "":
		backend, err := wiring.OpenS3Backend(wiring.S3Options{
			BucketName:      *fS3Bucket,
			Region:          s3.Region(*fS3Region),
			AccessKeyID:     *fS3AccessKeyID,
			AccessKeySecret: *fS3AccessKeySecret,
		})
		if err != nil {
			return archivereader.RootHandle{}, fmt.Errorf("opening S3 bucket %s: %w", *fS3Bucket, err)
		}
		return archivereader.ProbeS3(backend, path, envelope.Key(*fKey))

	default:
		return archivereader.Probe(ctx, path, envelope.Key(*fKey))
	}
}

func overlayFlags(cfg *config.ValidatorOptions) {
	fs := cmdValidate.Flags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "md5":
			cfg.MD5 = *fMD5
		case "blob-crc":
			cfg.BlobCRC = *fBlobCRC
		case "index":
			cfg.Index = *fIndex
		case "exhaustive":
			cfg.Exhaustive = *fExhaustive
		case "referential-integrity":
			cfg.ReferentialIntegrity = *fReferentialIntegrity
		case "consistency-check":
			cfg.ConsistencyCheck = *fConsistencyCheck
		case "sdc-rows":
			cfg.SDCRows = *fSDCRows
		case "sdc-plen-thold":
			cfg.SDCPLenThreshold = *fSDCPLenThold
		}
	})
}

// countingSink forwards every event to inner and advances counter by one
// row-equivalent unit per event, the progress model being purely advisory
// (§4.7): it never feeds back into validation outcomes.
type countingSink struct {
	inner   report.Sink
	counter *progress.Counter
}

func (s *countingSink) Accept(e report.Event) {
	s.inner.Accept(e)
	s.counter.Advance(1)
}

// exitCode maps the error taxonomy (§7) onto a process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	ve, ok := err.(*verrors.ValidationError)
	if !ok {
		return 1
	}

	switch ve.Kind {
	case verrors.KindCancelled:
		return 130
	case verrors.KindFatalStructure:
		return 2
	case verrors.KindChecksumMismatch:
		return 3
	case verrors.KindDataConsistency:
		return 4
	case verrors.KindMissingChecksum:
		return 5
	case verrors.KindUnexpectedObject:
		return 6
	case verrors.KindIncomplete:
		return 7
	default:
		return 1
	}
}
