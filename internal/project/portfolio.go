// Package project declares the per-project components shared by every
// capacity and operational type: the portfolio, the capacity aggregation that
// joins what the capacity types contribute, and the operations aggregation
// feeding the load balance.
package project

import (
	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
)

// Portfolio is the project list with each project's subtypes and load zone.
type Portfolio struct {
	Projects    []string
	Capacity    dispatch.Assignments
	Operational dispatch.Assignments
	LoadZone    map[string]string
}

// GetLogger returns the project package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("project")
}

// ReadPortfolio reads projects.tab without touching a model.
func ReadPortfolio(dir string) (*Portfolio, error) {
	t, err := inputs.ReadFile(dir, core.ProjectsFile)
	if err != nil {
		return nil, err
	}
	p := &Portfolio{
		Capacity:    make(dispatch.Assignments),
		Operational: make(dispatch.Assignments),
		LoadZone:    make(map[string]string),
	}
	for _, r := range t.Records() {
		prj, err := r.String("project")
		if err != nil {
			return nil, err
		}
		if _, dup := p.Capacity[prj]; dup {
			return nil, errors.Newf("%s line %d: duplicate project %s", core.ProjectsFile, r.Line(), prj).
				Component("project").
				Category(errors.CategoryConfiguration).
				Build()
		}
		capType, ok := r.OptString("capacity_type")
		if !ok {
			return nil, missingSubtype(r, prj, "capacity_type")
		}
		oprType, ok := r.OptString("operational_type")
		if !ok {
			return nil, missingSubtype(r, prj, "operational_type")
		}
		zone, err := r.String("load_zone")
		if err != nil {
			return nil, err
		}
		p.Projects = append(p.Projects, prj)
		p.Capacity[prj] = capType
		p.Operational[prj] = oprType
		p.LoadZone[prj] = zone
	}
	return p, nil
}

func missingSubtype(r inputs.Record, prj, column string) error {
	return errors.Newf("%s line %d: project %s has no %s", core.ProjectsFile, r.Line(), prj, column).
		Component("project").
		Category(errors.CategoryConfiguration).
		Build()
}

// LoadPortfolio reads projects.tab and declares the PROJECTS set. Every
// project must sit in a declared load zone.
func LoadPortfolio(m *model.Model, dir string) (*Portfolio, error) {
	p, err := ReadPortfolio(dir)
	if err != nil {
		return nil, err
	}
	zones, err := model.SetOf[string](m, core.SetLoadZones)
	if err != nil {
		return nil, err
	}
	for _, prj := range p.Projects {
		if !zones.Contains(p.LoadZone[prj]) {
			return nil, errors.Newf("project %s is in unknown load zone %s", prj, p.LoadZone[prj]).
				Component("project").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}
	if err := model.AddSet(m, model.NewSet(core.SetProjects, p.Projects...)); err != nil {
		return nil, err
	}
	GetLogger().Debug("portfolio loaded",
		logger.Int("projects", len(p.Projects)),
		logger.Any("capacity_types", p.Capacity.Tags()),
		logger.Any("operational_types", p.Operational.Tags()))
	return p, nil
}

// InZone returns the projects in zone, in portfolio order.
func (p *Portfolio) InZone(zone string) []string {
	var out []string
	for _, prj := range p.Projects {
		if p.LoadZone[prj] == zone {
			out = append(out, prj)
		}
	}
	return out
}
