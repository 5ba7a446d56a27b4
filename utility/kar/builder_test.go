// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	require.NoError(t, err)

	require.NoError(t, builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb")))
	require.NoError(t, builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")))
	assert.Equal(t, 2, builder.Len())

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), num)
	assert.Equal(t, magic[:], buf.Bytes()[:MagicLength])

	require.NoError(t, builder.Close())
	_, err = os.Stat(builder.tempDir)
	assert.True(t, os.IsNotExist(err))
}

func TestHeaderSizeEncoding(t *testing.T) {
	num, err := binaryToint64(int64ToBinary(1 << 40))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), num)

	_, err = binaryToint64([]byte{1, 2})
	assert.Equal(t, ErrFileFormat, err)
}
