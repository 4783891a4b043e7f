// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/zeebo/assert"
)

type upper struct{ cor.BaseCommand }

func (u *upper) Execute(ctx cor.Context) {
	in, _ := cor.Value[string](ctx, u.GetInputParam())
	u.Succeed(ctx, strings.ToUpper(in))
}

type exclaim struct{ cor.BaseCommand }

func (e *exclaim) Execute(ctx cor.Context) {
	in, _ := cor.Value[string](ctx, e.GetInputParam())
	e.Succeed(ctx, in+"!")
}

type failing struct {
	cor.BaseCommand
	err error
}

func (f *failing) Execute(ctx cor.Context) { f.Fail(ctx, f.err) }

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(&upper{*cor.NewBaseCommand("upper")})
	chain.AddCommand(&exclaim{*cor.NewBaseCommand("exclaim")})

	ctx := cor.NewBaseContextWith(context.Background(), "meow")
	chain.Execute(ctx)

	assert.NoError(t, ctx.Err())
	assert.Equal(t, ctx.Get(cor.CtxIn), "MEOW!")
}

func TestChainStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	after := &exclaim{*cor.NewBaseCommand("after")}
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(&upper{*cor.NewBaseCommand("upper")})
	chain.AddCommand(&failing{*cor.NewBaseCommand("failing"), boom})
	chain.AddCommand(after)

	ctx := cor.NewBaseContextWith(context.Background(), "meow")
	chain.Execute(ctx)

	assert.True(t, errors.Is(ctx.Err(), boom))
	assert.Equal(t, len(ctx.GetErrors()), 1)
	// the failing command produced nothing, so nothing was piped on
	assert.Nil(t, ctx.Get(cor.CtxIn))
}

func TestChainRecordsMissingInput(t *testing.T) {
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(&upper{*cor.NewBaseCommand("upper")})

	ctx := cor.NewBaseContextWith(context.Background(), nil)
	chain.Execute(ctx)
	assert.Error(t, ctx.Err())
	assert.NotNil(t, ctx.GetErrors()["upper"])
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(&upper{*cor.NewBaseCommand("upper")})

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := cor.NewBaseContextWith(parent, "meow")
	chain.Execute(ctx)
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}

func TestContextErrOrder(t *testing.T) {
	ctx := cor.NewBaseContext()
	assert.Nil(t, ctx.Err())
	first, second := errors.New("first"), errors.New("second")
	ctx.AddError("a", first)
	ctx.AddError("b", second)
	ctx.AddError("c", nil)
	assert.Equal(t, ctx.Err().Error(), "first\nsecond")
	assert.True(t, ctx.HasErrors())
}
