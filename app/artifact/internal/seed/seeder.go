package seed

import (
	"context"
	"fmt"
	"maps"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/autosync"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/factory"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// 失败发生的阶段
const (
	StageResolve = "resolve" // 模板或实例解析
	StageBuild   = "build"   // 工厂构造与校验
	StageSave    = "save"    // 持久化
)

var errUnknownSlug = errors.New("unknown template slug")

// Failure 单条种子数据失败
// Index 为该条目在所属阶段输入中的位置
type Failure struct {
	Stage string
	Kind  string
	Index int
	Name  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s[%d] %s: %v", f.Stage, f.Kind, f.Index, f.Name, f.Err)
}

// Report 导入结果
type Report struct {
	Templates int
	Instances int
	Bots      int
	Items     int
	Accounts  int
	Failures  []Failure
}

// Err 将所有失败合并为一个错误，全部成功时为 nil
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures {
		err = errors.CombineErrors(err, f)
	}
	return err
}

// Seeder 把种子数据经工厂构造后写入存储
type Seeder struct {
	syncer *autosync.Syncer
	logger logger.Logger
}

// New 创建 Seeder
func New(s *autosync.Syncer, l logger.Logger) *Seeder {
	return &Seeder{syncer: s, logger: logger.OrNoop(l).Named("seed")}
}

// Run 导入种子数据
// 已存在的模板（按 slug）直接复用，重复执行不会产生重复模板
func (s *Seeder) Run(ctx context.Context, fx *Fixture) (*Report, error) {
	report := &Report{}

	// 1. 模板
	catalog, err := s.seedTemplates(ctx, fx.Templates, report)
	if err != nil {
		return report, err
	}

	// 2. 解析机器人组件引用并铸造实例
	var botConfigs []map[string]any
	for i, raw := range fx.Bots {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cfg, err := s.resolveBot(ctx, raw, catalog, report)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Stage: StageResolve, Kind: "bot", Index: i, Name: nameOf(raw), Err: err})
			continue
		}
		botConfigs = append(botConfigs, cfg)
	}

	// 3. 工厂批量构造
	bots := s.syncer.Bots().BatchCreateArtifacts(botConfigs)
	items := s.syncer.Items().BatchCreateArtifacts(fx.Items)
	accounts := s.syncer.Accounts().BatchCreateArtifacts(fx.Accounts)
	report.Failures = appendBuildFailures(report.Failures, "bot", bots.Failures)
	report.Failures = appendBuildFailures(report.Failures, "item", items.Failures)
	report.Failures = appendBuildFailures(report.Failures, "account", accounts.Failures)

	// 4. 并发持久化
	saved := s.syncer.SaveArtifactBatch(ctx, autosync.ArtifactBatch{
		Bots:     bots.Artifacts,
		Items:    items.Artifacts,
		Accounts: accounts.Artifacts,
	})
	for _, f := range saved.Failures {
		report.Failures = append(report.Failures, Failure{Stage: StageSave, Kind: f.Kind, Index: f.Index, Name: f.Name, Err: f.Err})
	}
	report.Bots = len(saved.Bots)
	report.Items = len(saved.Items)
	report.Accounts = len(saved.Accounts)

	s.logger.InfoContext(ctx, "seed finished",
		"templates", report.Templates,
		"instances", report.Instances,
		"bots", report.Bots,
		"items", report.Items,
		"accounts", report.Accounts,
		"failures", len(report.Failures),
	)
	for _, f := range report.Failures {
		s.logger.WarnContext(ctx, "seed entry failed", "stage", f.Stage, "kind", f.Kind, "index", f.Index, "name", f.Name, "error", f.Err)
	}
	return report, nil
}

func (s *Seeder) seedTemplates(ctx context.Context, raws []map[string]any, report *Report) (map[string]*model.Template, error) {
	catalog := make(map[string]*model.Template, len(raws))
	sch := schema.Of(schema.EntityTemplate, schema.Create)

	for i, raw := range raws {
		in, errs := schema.Parse[schema.TemplateCreate](sch, raw)
		if !errs.Empty() {
			report.Failures = append(report.Failures, Failure{
				Stage: StageBuild, Kind: "template", Index: i, Name: nameOf(raw),
				Err: &model.ValidationError{Entity: "template", Errors: errs},
			})
			continue
		}

		existing, err := s.syncer.FindTemplateBySlug(ctx, in.Slug)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			catalog[in.Slug] = existing
			continue
		}

		tpl, err := s.syncer.SaveTemplate(ctx, model.Template{
			Class: model.TemplateClass(in.Class),
			Name:  in.Name,
			Slug:  in.Slug,
			Meta: model.TemplateMeta{
				BaseStats: model.Stats{
					Attack:  in.Meta.BaseStats.Attack,
					Defense: in.Meta.BaseStats.Defense,
					Speed:   in.Meta.BaseStats.Speed,
				},
				SlotCapacity: in.Meta.SlotCapacity,
				Extra:        in.Meta.Extras(),
			},
		})
		if err != nil {
			report.Failures = append(report.Failures, Failure{Stage: StageSave, Kind: "template", Index: i, Name: in.Name, Err: err})
			continue
		}
		catalog[in.Slug] = tpl
		report.Templates++
	}
	return catalog, nil
}

// resolveBot 将组件字段中的 slug 替换为新铸造实例的组件配置
func (s *Seeder) resolveBot(ctx context.Context, raw map[string]any, catalog map[string]*model.Template, report *Report) (map[string]any, error) {
	cfg := maps.Clone(raw)
	owner, _ := raw["ownerId"].(string)
	shard, _ := raw["shardId"].(string)

	mint := func(ref any) (any, error) {
		slug, ok := ref.(string)
		if !ok {
			return ref, nil
		}
		tpl := catalog[slug]
		if tpl == nil {
			return nil, errors.Wrapf(errUnknownSlug, "%q", slug)
		}
		inst, err := s.syncer.MintInstance(ctx, tpl.ID, shard, owner)
		if err != nil {
			return nil, errors.Wrapf(err, "mint %s", slug)
		}
		report.Instances++
		return componentConfig(tpl, inst), nil
	}

	for _, key := range []string{"soulChip", "skeleton"} {
		ref, ok := cfg[key]
		if !ok || ref == nil {
			continue
		}
		c, err := mint(ref)
		if err != nil {
			return nil, errors.Wrap(err, key)
		}
		cfg[key] = c
	}

	for _, key := range []string{"parts", "expansions"} {
		refs, ok := cfg[key].([]any)
		if !ok {
			continue
		}
		resolved := make([]any, 0, len(refs))
		for i, ref := range refs {
			c, err := mint(ref)
			if err != nil {
				return nil, errors.Wrapf(err, "%s[%d]", key, i)
			}
			resolved = append(resolved, c)
		}
		cfg[key] = resolved
	}
	return cfg, nil
}

func componentConfig(tpl *model.Template, inst *model.Instance) map[string]any {
	return map[string]any{
		"instanceId": inst.ID,
		"state":      string(inst.State),
		"template": map[string]any{
			"id":    tpl.ID,
			"class": string(tpl.Class),
			"name":  tpl.Name,
			"slug":  tpl.Slug,
			"meta":  tpl.Meta.Map(),
		},
	}
}

func appendBuildFailures(dst []Failure, kind string, failures []factory.Failure) []Failure {
	for _, f := range failures {
		dst = append(dst, Failure{Stage: StageBuild, Kind: kind, Index: f.Index, Name: f.Name, Err: f.Err})
	}
	return dst
}

func nameOf(raw map[string]any) string {
	if name, ok := raw["name"].(string); ok && name != "" {
		return name
	}
	if slug, ok := raw["slug"].(string); ok {
		return slug
	}
	return ""
}
