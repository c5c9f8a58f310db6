package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mcpower/monash-timetabler/internal/repository"
	"github.com/mcpower/monash-timetabler/internal/service"
	"github.com/mcpower/monash-timetabler/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "timetabler"
	app.Usage = "rank every clash-free weekly timetable for a set of enrolled classes"
	app.Commands = append(
		app.Commands,
		&rankCommand,
		&exportCommand,
		&tokenCommand,
		&criteriaCommand,
	)
	app.Flags = []cli.Flag{verboseFlag}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

var (
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "log enumeration progress at debug level",
	}
	fileFlag = &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "activity snapshot to rank",
		Value:   "all_acts.json",
		EnvVars: []string{"ACTIVITY_FILE"},
	}
	topFlag = &cli.IntFlag{
		Name:  "top",
		Usage: "number of timetables to print",
		Value: 3,
	}
	earlyBeforeFlag = &cli.StringFlag{
		Name:    "early-before",
		Usage:   "a day starting before this time counts as too early",
		EnvVars: []string{"RANKING_EARLY_BEFORE"},
	}
	lateFromFlag = &cli.StringFlag{
		Name:    "late-from",
		Usage:   "a day with a class at or after this time counts as too late",
		EnvVars: []string{"RANKING_LATE_FROM"},
	}
	criteriaFlag = &cli.StringSliceFlag{
		Name:    "criteria",
		Aliases: []string{"c"},
		Usage:   "ordered scoring criteria such as -days_spent; see the criteria command",
	}
	targetStartFlag = &cli.StringFlag{
		Name:  "target-start",
		Usage: "preferred arrival time used by start_distance",
	}
	focusDaysFlag = &cli.StringSliceFlag{
		Name:  "focus-days",
		Usage: "days measured by day_contact",
	}
	workersFlag = &cli.IntFlag{
		Name:    "workers",
		Usage:   "parallel enumeration workers",
		Value:   runtime.NumCPU(),
		EnvVars: []string{"RANKING_WORKERS"},
	}
	maxCombinationsFlag = &cli.Uint64Flag{
		Name:    "max-combinations",
		Usage:   "refuse catalogs with a larger product; 0 disables the limit",
		Value:   5_000_000,
		EnvVars: []string{"RANKING_MAX_COMBINATIONS"},
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "print the ranking as JSON instead of text grids",
	}
	indexFlag = &cli.IntFlag{
		Name:  "index",
		Usage: "rank position to export, 0 is best",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "export format: pdf or csv",
		Value: service.ExportFormatPDF,
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "output directory",
		Value: ".",
	}
	subjectFlag = &cli.StringFlag{
		Name:     "subject",
		Usage:    "enrolment id the token is issued for",
		Required: true,
	}
	ttlFlag = &cli.DurationFlag{
		Name:  "ttl",
		Usage: "token lifetime",
		Value: 24 * time.Hour,
	}
	secretFlag = &cli.StringFlag{
		Name:     "secret",
		Usage:    "HMAC secret shared with the API",
		EnvVars:  []string{"JWT_SECRET"},
		Required: true,
	}
	issuerFlag = &cli.StringFlag{
		Name:    "issuer",
		Usage:   "token issuer",
		EnvVars: []string{"JWT_ISSUER"},
	}
)

var rankingFlags = []cli.Flag{
	fileFlag, earlyBeforeFlag, lateFromFlag, criteriaFlag, targetStartFlag, focusDaysFlag,
	workersFlag, maxCombinationsFlag,
}

var (
	rankCommand = cli.Command{
		Name:   "rank",
		Usage:  "Rank the timetables of an activity snapshot",
		Flags:  append([]cli.Flag{topFlag, jsonFlag}, rankingFlags...),
		Action: rank,
	}
	exportCommand = cli.Command{
		Name:   "export",
		Usage:  "Export one ranked timetable as a PDF or CSV file",
		Flags:  append([]cli.Flag{indexFlag, formatFlag, outFlag}, rankingFlags...),
		Action: exportTimetable,
	}
	tokenCommand = cli.Command{
		Name:   "token",
		Usage:  "Issue a bearer token for the API",
		Flags:  []cli.Flag{subjectFlag, ttlFlag, secretFlag, issuerFlag},
		Action: issueToken,
	}
	criteriaCommand = cli.Command{
		Name:  "criteria",
		Usage: "List the scoring criteria and the default order",
		Action: func(ctx *cli.Context) error {
			return printJSON(map[string]interface{}{
				"criteria": service.CriteriaNames(),
				"default":  service.DefaultCriteria,
			})
		},
	}
)

func rank(ctx *cli.Context) error {
	ranking, err := runRanking(ctx)
	if err != nil {
		return err
	}
	top := ctx.Int(topFlag.Name)
	if top > ranking.Len() {
		top = ranking.Len()
	}

	if ctx.Bool(jsonFlag.Name) {
		items := make([]map[string]interface{}, 0, top)
		for i := 0; i < top; i++ {
			ranked, err := ranking.At(i)
			if err != nil {
				return err
			}
			items = append(items, map[string]interface{}{
				"index":       ranked.Index,
				"combination": ranked.Combination,
				"score":       ranked.Score,
			})
		}
		return printJSON(map[string]interface{}{
			"stats":      ranking.Stats(),
			"palette":    ranking.Palette(),
			"timetables": items,
		})
	}

	out := ctx.App.Writer
	printStats(out, ranking.Stats())
	for i := 0; i < top; i++ {
		ranked, err := ranking.At(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n#%d  score %v\n", i+1, ranked.Score)
		if err := renderGrid(out, ranked.Timetable); err != nil {
			return err
		}
	}
	return nil
}

func exportTimetable(ctx *cli.Context) error {
	ranking, err := runRanking(ctx)
	if err != nil {
		return err
	}
	index := ctx.Int(indexFlag.Name)
	ranked, err := ranking.At(index)
	if err != nil {
		return err
	}

	exporter := service.NewExportService(cliLogger(ctx), nil, nil)
	file, err := exporter.Export(service.TimetableView{
		Title:     fmt.Sprintf("Timetable #%d", index+1),
		Timetable: ranked.Timetable,
		Palette:   ranking.Palette(),
	}, ctx.String(formatFlag.Name))
	if err != nil {
		return err
	}
	path := filepath.Join(ctx.String(outFlag.Name), file.Filename)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(ctx.App.Writer, path)
	return nil
}

func issueToken(ctx *cli.Context) error {
	tokens := service.NewTokenService(ctx.String(secretFlag.Name), ctx.String(issuerFlag.Name))
	token, expires, err := tokens.Issue(ctx.String(subjectFlag.Name), ctx.Duration(ttlFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"token":      token,
		"expires_at": expires,
	})
}

func runRanking(ctx *cli.Context) (*service.Ranking, error) {
	log := cliLogger(ctx)
	repo := repository.NewActivityFileRepository(ctx.String(fileFlag.Name))
	activities, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("no activities in %s", repo.Path())
	}
	cat, warnings, err := service.CatalogFromActivities(activities)
	if err != nil {
		return nil, err
	}
	policy, err := service.BuildPolicy(service.PolicyOptions{
		EarlyBefore: ctx.String(earlyBeforeFlag.Name),
		LateFrom:    ctx.String(lateFromFlag.Name),
		TargetStart: ctx.String(targetStartFlag.Name),
		FocusDays:   ctx.StringSlice(focusDaysFlag.Name),
		Criteria:    ctx.StringSlice(criteriaFlag.Name),
	}, service.RankingServiceConfig{})
	if err != nil {
		return nil, err
	}
	ranker := service.NewRanker(service.RankerConfig{
		Workers:         ctx.Int(workersFlag.Name),
		MaxCombinations: ctx.Uint64(maxCombinationsFlag.Name),
	}, log, nil)
	size, err := ranker.CheckSize(cat)
	if err != nil {
		return nil, err
	}
	printPlan(ctx.App.ErrWriter, cat.Len(), warnings, size)
	return ranker.Rank(ctx.Context, cat, warnings, policy)
}

func cliLogger(ctx *cli.Context) *zap.Logger {
	log, err := logger.NewCLI(ctx.Bool(verboseFlag.Name))
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
