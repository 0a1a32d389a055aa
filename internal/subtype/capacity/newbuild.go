package capacity

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/temporal"
	"github.com/gridforge/gridforge/internal/validation"
)

// newBuild is a capacity type whose capacity is built per vintage. A vintage
// operates in the periods its lifetime reaches and incurs its annualized cost
// in the periods its financial lifetime reaches.
type newBuild struct {
	name    string
	file    string
	prefix  string
	binary  bool
	storage bool

	vintages    []temporal.Vintage
	byKey       map[temporal.Vintage]model.EntityPeriod
	operational map[temporal.Vintage][]int
	financial   map[temporal.Vintage][]int
}

func (n *newBuild) Name() string { return n.name }

func (n *newBuild) set(suffix string) string {
	return strings.ToUpper(n.name) + "_" + suffix
}

func (n *newBuild) param(col string) string { return n.name + "_" + col }

func (n *newBuild) buildVar() string { return n.prefix + "_Build_MW" }

func (n *newBuild) buildEnergyVar() string { return n.prefix + "_Build_MWh" }

func (n *newBuild) costColumns() []string {
	cols := []string{"annualized_real_cost_per_mw_yr", "fixed_cost_per_mw_yr"}
	if n.storage {
		cols = append(cols, "annualized_real_cost_per_mwh_yr")
	}
	if n.binary {
		cols = append(cols, "build_size_mw")
	} else {
		cols = append(cols, "max_build_mw")
	}
	return cols
}

// cumulativeColumns bound the MW built in all vintages up to and including
// the row's vintage. Either may be left blank.
var cumulativeColumns = []string{"min_cumulative_new_build_mw", "max_cumulative_new_build_mw"}

func (n *newBuild) columns() []string {
	cols := append([]string{"project", "vintage", "lifetime_yrs", "financial_lifetime_yrs"}, n.costColumns()...)
	return append(cols, cumulativeColumns...)
}

// LoadModelData reads the vintage file and derives each vintage's operational
// and financial periods. A financial lifetime left blank equals the
// operational lifetime.
func (n *newBuild) LoadModelData(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	projects, err := projectsOfType(b, n.name)
	if err != nil {
		return err
	}
	periods, err := core.Periods(m)
	if err != nil {
		return err
	}
	t, err := inputs.ReadFile(b.InputsDir(), n.file)
	if err != nil {
		return err
	}

	vnts := model.NewSet[model.EntityPeriod](n.set("VNTS"))
	params := make(map[string]*model.Param[model.EntityPeriod])
	for _, col := range n.costColumns() {
		if col == "max_build_mw" {
			params[col] = model.NewParamWithDefault[model.EntityPeriod](n.param(col), math.Inf(1))
		} else {
			params[col] = model.NewParamWithDefault[model.EntityPeriod](n.param(col), 0)
		}
	}
	for _, col := range cumulativeColumns {
		params[col] = model.NewParam[model.EntityPeriod](n.param(col))
	}
	life := make(map[temporal.Vintage]float64)
	finLife := make(map[temporal.Vintage]float64)
	n.byKey = make(map[temporal.Vintage]model.EntityPeriod)

	for _, r := range t.Records() {
		prj, err := r.String("project")
		if err != nil {
			return err
		}
		if !projects[prj] {
			continue
		}
		vintage, err := r.Int("vintage")
		if err != nil {
			return err
		}
		p, ok := temporal.PeriodByID(periods, vintage)
		if !ok {
			return errors.Newf("%s line %d: vintage %d of %s is not a modeled period", n.file, r.Line(), vintage, prj).
				Component("capacity").
				Category(errors.CategoryConfiguration).
				Build()
		}
		k := model.EntityPeriod{Entity: prj, Period: vintage}
		v := temporal.Vintage{Entity: prj, Year: p.StartYear}
		if !vnts.Add(k) {
			return errors.Newf("%s line %d: duplicate vintage %d of %s", n.file, r.Line(), vintage, prj).
				Component("capacity").
				Category(errors.CategoryConfiguration).
				Build()
		}
		n.vintages = append(n.vintages, v)
		n.byKey[v] = k

		if life[v], err = r.Float("lifetime_yrs"); err != nil {
			return err
		}
		finLife[v] = life[v]
		if f, ok, err := r.OptFloat("financial_lifetime_yrs"); err != nil {
			return err
		} else if ok {
			finLife[v] = f
		}
		for _, col := range append(n.costColumns(), cumulativeColumns...) {
			if f, ok, err := r.OptFloat(col); err != nil {
				return err
			} else if ok {
				params[col].Set(k, f)
			}
		}
		if n.binary && !params["build_size_mw"].Has(k) {
			return errors.Newf("%s line %d: %s vintage %d has no build_size_mw", n.file, r.Line(), prj, vintage).
				Component("capacity").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	if n.operational, err = temporal.RelevantPeriodsByVintage(periods, n.vintages, func(v temporal.Vintage) float64 { return life[v] }); err != nil {
		return err
	}
	if n.financial, err = temporal.RelevantPeriodsByVintage(periods, n.vintages, func(v temporal.Vintage) float64 { return finLife[v] }); err != nil {
		return err
	}

	opr := model.NewSet[model.EntityPeriod](n.set("OPR_PRDS"))
	fin := model.NewSet[model.EntityPeriod](n.set("FIN_PRDS"))
	for _, v := range n.vintages {
		for _, prd := range n.operational[v] {
			opr.Add(model.EntityPeriod{Entity: v.Entity, Period: prd})
		}
		for _, prd := range n.financial[v] {
			fin.Add(model.EntityPeriod{Entity: v.Entity, Period: prd})
		}
	}

	for _, s := range []*model.Set[model.EntityPeriod]{vnts, opr, fin} {
		if err := model.AddSet(m, s); err != nil {
			return err
		}
	}
	for _, col := range append(n.costColumns(), cumulativeColumns...) {
		if err := model.AddParam(m, params[col]); err != nil {
			return err
		}
	}

	GetLogger().Debug("vintages loaded",
		logger.String("capacity_type", n.name),
		logger.Int("vintages", vnts.Len()),
		logger.Int("operational_periods", opr.Len()))
	return nil
}

// AddModelComponents declares one build variable per vintage and contributes
// the type's period and vintage sets.
func (n *newBuild) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	var maxBuild *model.Param[model.EntityPeriod]
	if !n.binary {
		maxBuild = model.MustParam[model.EntityPeriod](m, n.param("max_build_mw"))
	}
	for _, k := range model.MustSet[model.EntityPeriod](m, n.set("VNTS")).Items() {
		bounds := model.NonNegative()
		switch {
		case n.binary:
			bounds = model.BinaryVar()
		case maxBuild.Has(k):
			bounds.Upper = maxBuild.Get(k)
		}
		if _, err := m.AddVar(n.buildVar(), k, bounds); err != nil {
			return err
		}
		if n.storage {
			if _, err := m.AddVar(n.buildEnergyVar(), k, model.NonNegative()); err != nil {
				return err
			}
		}
	}

	if err := n.addCumulativeBounds(m); err != nil {
		return err
	}

	if err := d.OperationalPeriodSets.Append(n.set("OPR_PRDS")); err != nil {
		return err
	}
	if err := d.FinancialPeriodSets.Append(n.set("FIN_PRDS")); err != nil {
		return err
	}
	return d.NewBuildVintageSets.Append(n.set("VNTS"))
}

// built is the MW a vintage adds: the build variable, times the unit size
// for binary builds.
func (n *newBuild) built(m *model.Model, k model.EntityPeriod) model.LinExpr {
	size := 1.0
	if n.binary {
		size = model.MustParam[model.EntityPeriod](m, n.param("build_size_mw")).Get(k)
	}
	return m.VarTerm(n.buildVar(), k, size)
}

// addCumulativeBounds constrains, for every vintage with a bound, the MW built
// in that vintage and all earlier ones.
func (n *newBuild) addCumulativeBounds(m *model.Model) error {
	minCum := model.MustParam[model.EntityPeriod](m, n.param("min_cumulative_new_build_mw"))
	maxCum := model.MustParam[model.EntityPeriod](m, n.param("max_cumulative_new_build_mw"))
	for _, v := range n.vintages {
		k := n.byKey[v]
		if !minCum.Has(k) && !maxCum.Has(k) {
			continue
		}
		built := n.cumulative(m, v)
		if minCum.Has(k) {
			if err := m.AddConstraint(n.prefix+"_Min_Cumulative_Build_Constraint", k, built, model.GreaterEqual, minCum.Get(k)); err != nil {
				return err
			}
		}
		if maxCum.Has(k) {
			if err := m.AddConstraint(n.prefix+"_Max_Cumulative_Build_Constraint", k, built, model.LessEqual, maxCum.Get(k)); err != nil {
				return err
			}
		}
	}
	return nil
}

// cumulative is the MW built by the project in vintage through and every
// vintage starting before it.
func (n *newBuild) cumulative(m *model.Model, through temporal.Vintage) model.LinExpr {
	var e model.LinExpr
	for _, v := range n.vintages {
		if v.Entity == through.Entity && v.Year <= through.Year {
			e.Add(n.built(m, n.byKey[v]))
		}
	}
	return e
}

func (n *newBuild) relevant(prj string, prd int, relevant map[temporal.Vintage][]int) []model.EntityPeriod {
	var out []model.EntityPeriod
	for _, v := range temporal.VintagesRelevantInPeriod(n.vintages, relevant, prd) {
		if v.Entity == prj {
			out = append(out, n.byKey[v])
		}
	}
	return out
}

// CapacityRule sums the builds of every vintage operating in the period.
func (n *newBuild) CapacityRule(m *model.Model, prj string, prd int) model.LinExpr {
	var e model.LinExpr
	for _, k := range n.relevant(prj, prd, n.operational) {
		e.Add(n.built(m, k))
	}
	return e
}

// NewCapacityRule is the build of the vintage of that period, if any.
func (n *newBuild) NewCapacityRule(m *model.Model, prj string, prd int) model.LinExpr {
	return n.built(m, model.EntityPeriod{Entity: prj, Period: prd})
}

// CapacityCostRule charges every vintage still within its financial lifetime.
func (n *newBuild) CapacityCostRule(m *model.Model, prj string, prd int) model.LinExpr {
	costMW := model.MustParam[model.EntityPeriod](m, n.param("annualized_real_cost_per_mw_yr"))
	var e model.LinExpr
	for _, k := range n.relevant(prj, prd, n.financial) {
		e.Add(n.built(m, k).Scale(costMW.Get(k)))
		if n.storage {
			costMWh := model.MustParam[model.EntityPeriod](m, n.param("annualized_real_cost_per_mwh_yr"))
			e.Add(m.VarTerm(n.buildEnergyVar(), k, costMWh.Get(k)))
		}
	}
	return e
}

func (n *newBuild) FixedCostRule(m *model.Model, prj string, prd int) model.LinExpr {
	fixed := model.MustParam[model.EntityPeriod](m, n.param("fixed_cost_per_mw_yr"))
	var e model.LinExpr
	for _, k := range n.relevant(prj, prd, n.operational) {
		e.Add(n.built(m, k).Scale(fixed.Get(k)))
	}
	return e
}

func (n *newBuild) resultColumns() []string {
	cols := []string{"new_build_mw"}
	if n.storage {
		cols = append(cols, "new_build_mwh")
	}
	if n.binary {
		cols = append(cols, "new_build_binary")
	}
	return cols
}

// ExportResults reports the capacity built per vintage.
func (n *newBuild) ExportResults(m *model.Model, _ *dynamic.Components, sol *model.Solution) ([]results.Contribution, error) {
	out := results.Contribution{Table: results.ProjectNewBuild, Module: n.name, Columns: n.resultColumns()}
	for _, k := range model.MustSet[model.EntityPeriod](m, n.set("VNTS")).Items() {
		values := map[string]results.Value{
			"new_build_mw": results.Float(sol.Evaluate(n.built(m, k))),
		}
		if n.storage {
			values["new_build_mwh"] = results.Float(sol.Evaluate(m.VarTerm(n.buildEnergyVar(), k, 1)))
		}
		if n.binary {
			values["new_build_binary"] = results.Float(sol.Evaluate(m.VarTerm(n.buildVar(), k, 1)))
		}
		out.Rows = append(out.Rows, results.Row{Key: results.Key{Entity: k.Entity, Index: k.Period}, Values: values})
	}
	return []results.Contribution{out}, nil
}

// ImportResults persists this type's rows of project_new_build.csv, replacing
// only rows previously stored for the same capacity type.
func (n *newBuild) ImportResults(ctx context.Context, q subtype.Query) error {
	path := filepath.Join(q.Build.ResultsDir(), results.ProjectNewBuild+".csv")
	t, err := results.ReadCSVFile(path)
	if err != nil {
		return err
	}
	prjs, err := projectsOfType(q.Build, n.name)
	if err != nil {
		return err
	}
	subtypes := make(map[string]string, len(prjs))
	for p := range prjs {
		subtypes[p] = n.name
	}
	return datastore.SaveResults(ctx, q.DB, datastore.ResultsBatch{
		ScenarioID: q.Scenario.ID,
		RunID:      q.RunID,
		Table:      t,
		Subtypes:   subtypes,
		Only:       n.name,
	})
}

func (n *newBuild) query(ctx context.Context, q subtype.Query) ([]entities.InputsProjectNewCost, error) {
	var rows []entities.InputsProjectNewCost
	err := q.DB.WithContext(ctx).
		Table("inputs_project_new_cost AS c").
		Select("c.*").
		Joins("JOIN inputs_project_portfolios AS p ON p.project = c.project AND p.project_portfolio_scenario_id = ?",
			q.Scenario.IDs.ProjectPortfolio).
		Where("c.project_new_cost_scenario_id = ? AND p.capacity_type = ?", q.Scenario.IDs.ProjectNewCost, n.name).
		Order("c.project, c.vintage").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, n.name, "inputs_project_new_cost")
	}
	return rows, nil
}

func (n *newBuild) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, err := n.query(ctx, q)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(n.file, n.columns()...)
	for _, r := range rows {
		values := []any{r.Project, r.Vintage, r.LifetimeYrs, r.FinancialLifetimeYrs, r.AnnualizedRealCostPerMWYr, r.FixedCostPerMWYr}
		if n.storage {
			values = append(values, r.AnnualizedRealCostPerMWhYr)
		}
		if n.binary {
			values = append(values, r.BuildSizeMW)
		} else {
			values = append(values, r.MaxBuildMW)
		}
		values = append(values, r.MinCumulativeNewBuildMW, r.MaxCumulativeNewBuildMW)
		if err := t.Append(values...); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (n *newBuild) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	return writeTables(ctx, q, n)
}

// ValidateInputs flags bad lifetimes, vintages outside the modeled periods and
// buildable projects without any vintage.
func (n *newBuild) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := n.query(ctx, q)
	if err != nil {
		return err
	}
	prjs, err := portfolioOfType(ctx, q, n.name)
	if err != nil {
		return err
	}
	var periods []int
	if err := q.DB.WithContext(ctx).Model(&entities.InputsTemporalPeriod{}).
		Where("temporal_scenario_id = ?", q.Scenario.IDs.Temporal).
		Pluck("period", &periods).Error; err != nil {
		return dbError(err, n.name, "inputs_temporal_periods")
	}
	modeled := make(map[int]bool, len(periods))
	for _, p := range periods {
		modeled[p] = true
	}

	const table = "inputs_project_new_cost"
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.Project] = true
		where := fmt.Sprintf("project %s vintage %d", r.Project, r.Vintage)
		if r.LifetimeYrs < 0 {
			c.Addf(n.name, table, validation.High, "%s: negative lifetime %g", where, r.LifetimeYrs)
		}
		if r.FinancialLifetimeYrs != nil && *r.FinancialLifetimeYrs < 0 {
			c.Addf(n.name, table, validation.High, "%s: negative financial lifetime %g", where, *r.FinancialLifetimeYrs)
		}
		if !modeled[r.Vintage] {
			c.Addf(n.name, table, validation.Mid, "%s: vintage is not a modeled period and will be ignored", where)
		}
		if n.binary && (r.BuildSizeMW == nil || *r.BuildSizeMW <= 0) {
			c.Addf(n.name, table, validation.High, "%s: binary build needs a positive build_size_mw", where)
		}
		if n.storage && r.AnnualizedRealCostPerMWhYr == nil {
			c.Addf(n.name, table, validation.Mid, "%s: no energy capacity cost, MWh builds are free", where)
		}
		if r.MaxBuildMW != nil && *r.MaxBuildMW < 0 {
			c.Addf(n.name, table, validation.High, "%s: negative max_build_mw", where)
		}
		if r.MinCumulativeNewBuildMW != nil && r.MaxCumulativeNewBuildMW != nil &&
			*r.MinCumulativeNewBuildMW > *r.MaxCumulativeNewBuildMW {
			c.Addf(n.name, table, validation.High, "%s: min_cumulative_new_build_mw %g exceeds max_cumulative_new_build_mw %g",
				where, *r.MinCumulativeNewBuildMW, *r.MaxCumulativeNewBuildMW)
		}
	}
	for _, p := range prjs {
		if !seen[p] {
			c.Addf(n.name, table, validation.High, "project %s has no new-build vintages", p)
		}
	}
	return nil
}

// storNewLin adds the energy capacity rule to linear storage builds.
type storNewLin struct {
	*newBuild
}

func (s storNewLin) EnergyCapacityRule(m *model.Model, prj string, prd int) model.LinExpr {
	var e model.LinExpr
	for _, k := range s.relevant(prj, prd, s.operational) {
		e.Add(m.VarTerm(s.buildEnergyVar(), k, 1))
	}
	return e
}

func newGenNewLin() subtype.Module {
	return &newBuild{name: GenNewLin, file: "new_build_generator_vintage_costs.tab", prefix: "GenNewLin"}
}

func newGenNewBin() subtype.Module {
	return &newBuild{name: GenNewBin, file: "new_binary_build_generator_vintage_costs.tab", prefix: "GenNewBin", binary: true}
}

func newStorNewLin() subtype.Module {
	return storNewLin{&newBuild{name: StorNewLin, file: "new_build_storage_vintage_costs.tab", prefix: "StorNewLin", storage: true}}
}
