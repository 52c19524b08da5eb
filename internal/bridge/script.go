package bridge

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/zclconf/go-cty/cty"
)

// Script is a decoded script file.
type Script struct {
	Filename   string
	Procedures []*ProcedureBlock `hcl:"procedure,block"`
	Evals      []*EvalBlock      `hcl:"eval,block"`
}

// ProcedureBlock defines a procedure whose body is an expression over its
// parameters.
//
//	procedure "pair" {
//	  params = ["a", "b"]
//	  result = ListLink(a, b)
//	}
type ProcedureBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Params      []string       `hcl:"params,optional"`
	Result      hcl.Expression `hcl:"result"`
}

// EvalBlock is a single expression evaluated when the script runs. Earlier
// results are visible to later blocks as eval.<name>.
type EvalBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

// Outcome is the value produced by one eval block.
type Outcome struct {
	Name  string
	Value cty.Value
}

// Expressions returns every expression in the script.
func (s *Script) Expressions() []hcl.Expression {
	var exprs []hcl.Expression
	for _, p := range s.Procedures {
		exprs = append(exprs, p.Result)
	}
	for _, e := range s.Evals {
		exprs = append(exprs, e.Value)
	}
	return exprs
}

// ParseScript decodes script source.
func ParseScript(src []byte, filename string) (*Script, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse script %s: %w", filename, diags)
	}
	return decodeScript(file, filename)
}

// LoadScript reads and decodes a script file.
func LoadScript(path string) (*Script, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, diags)
	}
	return decodeScript(file, path)
}

// scriptSchema lists the block types of a script with the attribute each one
// must set. gohcl leaves a missing hcl.Expression field as a null expression,
// so these are checked before decoding.
var scriptSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "procedure", LabelNames: []string{"name"}},
		{Type: "eval", LabelNames: []string{"name"}},
	},
}

var requiredAttribute = map[string]string{
	"procedure": "result",
	"eval":      "value",
}

func checkRequired(body hcl.Body) hcl.Diagnostics {
	content, _, diags := body.PartialContent(scriptSchema)
	for _, block := range content.Blocks {
		attr := requiredAttribute[block.Type]
		_, _, blockDiags := block.Body.PartialContent(&hcl.BodySchema{
			Attributes: []hcl.AttributeSchema{{Name: attr, Required: true}},
		})
		diags = append(diags, blockDiags...)
	}
	return diags
}

func decodeScript(file *hcl.File, filename string) (*Script, error) {
	if diags := checkRequired(file.Body); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode script %s: %w", filename, diags)
	}
	script := &Script{Filename: filename}
	if diags := gohcl.DecodeBody(file.Body, nil, script); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode script %s: %w", filename, diags)
	}

	seen := make(map[string]struct{})
	for _, e := range script.Evals {
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("script %s: duplicate eval block %q", filename, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	for _, p := range script.Procedures {
		for i, param := range p.Params {
			if !hclsyntax.ValidIdentifier(param) {
				return nil, fmt.Errorf("script %s: procedure %q parameter %d (%q) is not a valid identifier", filename, p.Name, i, param)
			}
		}
	}
	return script, nil
}

// Define registers every procedure of script into the bridge's script
// registry. Existing registrations with the same name are replaced.
func (b *Bridge) Define(ctx context.Context, script *Script) error {
	if diags := preflight(knownFunction, script.Expressions()...); diags.HasErrors() {
		return &EvalError{Diags: diags}
	}
	for _, block := range script.Procedures {
		if err := b.scripts.Register(b.scriptProcedure(block)); err != nil {
			return fmt.Errorf("script %s: %w", script.Filename, err)
		}
		ctxlog.FromContext(ctx).Debug("Defined script procedure.", "script", script.Filename, "procedure", Prefix+":"+block.Name)
	}
	return nil
}

func (b *Bridge) scriptProcedure(block *ProcedureBlock) *procedure.Procedure {
	params := append([]string(nil), block.Params...)
	p := procedure.New(block.Name, procedure.Exactly(len(params)), func(ctx context.Context, call *procedure.Call) (any, error) {
		vars := make(map[string]cty.Value, len(params))
		for i, name := range params {
			vars[name] = AtomVal(call.Arg(i))
		}
		v, err := b.evaluate(ctx, call.Space, block.Result, vars)
		if err != nil {
			return nil, err
		}
		if IsAtom(v) {
			return AtomFromValue(v)
		}
		return v, nil
	})
	return p.WithParams(params...).WithDescription(block.Description)
}

// Run defines the script's procedures, then evaluates its eval blocks in
// file order. It stops at the first failure and returns the outcomes produced
// before it.
func (b *Bridge) Run(ctx context.Context, script *Script) ([]Outcome, error) {
	logger := ctxlog.FromContext(ctx).With("script", script.Filename)
	logger.Info("▶️ Running script", "procedures", len(script.Procedures), "evals", len(script.Evals))

	if err := b.Define(ctx, script); err != nil {
		b.metrics.IncrementScript(false)
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(script.Evals))
	results := make(map[string]cty.Value, len(script.Evals))
	for _, block := range script.Evals {
		vars := map[string]cty.Value{"eval": cty.ObjectVal(results)}
		v, err := b.evaluate(ctx, b.space, block.Value, vars)
		if err != nil {
			b.metrics.IncrementScript(false)
			logger.Warn("Eval block failed.", "eval", block.Name, "error", err)
			return outcomes, fmt.Errorf("eval %q in %s: %w", block.Name, script.Filename, err)
		}
		logger.Debug("Eval block finished.", "eval", block.Name, "value", Format(v))
		outcomes = append(outcomes, Outcome{Name: block.Name, Value: v})
		results[block.Name] = v
	}

	b.metrics.IncrementScript(true)
	logger.Info("✅ Finished script", "evals", len(outcomes))
	return outcomes, nil
}
