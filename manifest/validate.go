package manifest

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compiling manifest schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Manifesto"))
		schemaErr = schemaDef.Err()
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks the manifest against the embedded CUE schema and the
// source rules for each dependency.
func (m *Manifest) Validate() error {
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}

	v := ctx.Encode(m.document())
	if err := v.Err(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid %s: %s", FileName, errors.Details(err, nil))
	}

	for _, name := range m.DependencyNames() {
		if err := m.Dependencias[name].check(); err != nil {
			return fmt.Errorf("invalid %s: dependency %q: %w", FileName, name, err)
		}
	}
	return nil
}

// document builds the plain map the schema is unified with. Empty optional
// fields are omitted so the schema only sees what the file would contain.
func (m *Manifest) document() map[string]interface{} {
	doc := map[string]interface{}{
		"nome":      m.Nome,
		"versao":    m.Versao,
		"principal": m.Principal,
	}
	optional := map[string]string{
		"descricao":   m.Descricao,
		"modulo":      m.Modulo,
		"licenca":     m.Licenca,
		"repositorio": m.Repositorio,
		"registro":    m.Registro,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}
	if len(m.Autores) > 0 {
		doc["autores"] = m.Autores
	}
	if len(m.PalavrasChave) > 0 {
		doc["palavras_chave"] = m.PalavrasChave
	}
	if len(m.Dependencias) > 0 {
		deps := make(map[string]interface{}, len(m.Dependencias))
		for name, d := range m.Dependencias {
			entry := map[string]interface{}{}
			for k, v := range map[string]string{
				"versao": d.Versao, "git": d.Git, "tag": d.Tag, "caminho": d.Caminho, "modulo": d.Modulo,
			} {
				if v != "" {
					entry[k] = v
				}
			}
			deps[name] = entry
		}
		doc["dependencias"] = deps
	}
	return doc
}
