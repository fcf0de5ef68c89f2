// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package esi

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobBuilder assembles a synthetic registry blob in memory, mirroring the
// generator that produces the real one, for test fixtures only.
type blobBuilder struct {
	vendors     []blobVendorSrc
	deviceIdx   []blobDeviceIndexSrc
	devices     []blobDeviceSrc
	pdos        []PDOEntry
	strings     map[string]uint32
	stringBytes []byte
}

type blobVendorSrc struct {
	id   uint32
	name string
}

type blobDeviceIndexSrc struct {
	vendorID, productCode, firstDevice, deviceCount uint32
}

type blobDeviceSrc struct {
	revision                uint32
	name                    string
	pdoOffset               uint32
	inputCount, outputCount uint16
}

func newBlobBuilder() *blobBuilder {
	return &blobBuilder{strings: map[string]uint32{}}
}

func (b *blobBuilder) intern(s string) uint32 {
	if off, ok := b.strings[s]; ok {
		return off
	}
	off := uint32(len(b.stringBytes))
	b.stringBytes = append(b.stringBytes, []byte(s)...)
	b.stringBytes = append(b.stringBytes, 0)
	b.strings[s] = off
	return off
}

func (b *blobBuilder) addVendor(id uint32, name string) {
	b.vendors = append(b.vendors, blobVendorSrc{id: id, name: name})
	b.intern(name)
}

// addDevice registers one device revision with its PDOs (inputs then
// outputs) and folds it into the device index, creating the index entry
// if this is the first revision seen for (vendorID, productCode).
func (b *blobBuilder) addDevice(vendorID, productCode, revision uint32, name string, inputs, outputs []PDOEntry) {
	b.intern(name)
	for _, p := range inputs {
		b.intern(p.Name)
	}
	for _, p := range outputs {
		b.intern(p.Name)
	}

	pdoOffset := uint32(len(b.pdos))
	b.pdos = append(b.pdos, inputs...)
	b.pdos = append(b.pdos, outputs...)

	devIdx := uint32(len(b.devices))
	b.devices = append(b.devices, blobDeviceSrc{
		revision: revision, name: name, pdoOffset: pdoOffset,
		inputCount: uint16(len(inputs)), outputCount: uint16(len(outputs)),
	})

	for i := range b.deviceIdx {
		if b.deviceIdx[i].vendorID == vendorID && b.deviceIdx[i].productCode == productCode {
			b.deviceIdx[i].deviceCount++
			return
		}
	}
	b.deviceIdx = append(b.deviceIdx, blobDeviceIndexSrc{
		vendorID: vendorID, productCode: productCode, firstDevice: devIdx, deviceCount: 1,
	})
}

func (b *blobBuilder) build() []byte {
	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], RegistryMagic)
	binary.LittleEndian.PutUint32(header[4:8], 1)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(b.vendors)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(b.deviceIdx)))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(b.devices)))
	binary.LittleEndian.PutUint32(header[20:24], uint32(len(b.pdos)))

	body := new(bytes.Buffer)
	for _, v := range b.vendors {
		rec := make([]byte, vendorSize)
		binary.LittleEndian.PutUint32(rec[0:4], v.id)
		binary.LittleEndian.PutUint32(rec[4:8], b.strings[v.name])
		body.Write(rec)
	}
	for _, e := range b.deviceIdx {
		rec := make([]byte, deviceIndexSize)
		binary.LittleEndian.PutUint32(rec[0:4], e.vendorID)
		binary.LittleEndian.PutUint32(rec[4:8], e.productCode)
		binary.LittleEndian.PutUint32(rec[8:12], e.firstDevice)
		binary.LittleEndian.PutUint32(rec[12:16], e.deviceCount)
		body.Write(rec)
	}
	for _, d := range b.devices {
		rec := make([]byte, deviceSize)
		binary.LittleEndian.PutUint32(rec[0:4], d.revision)
		binary.LittleEndian.PutUint32(rec[4:8], b.strings[d.name])
		binary.LittleEndian.PutUint32(rec[8:12], d.pdoOffset)
		binary.LittleEndian.PutUint16(rec[12:14], d.inputCount)
		binary.LittleEndian.PutUint16(rec[14:16], d.outputCount)
		body.Write(rec)
	}
	for _, p := range b.pdos {
		rec := make([]byte, pdoSize)
		binary.LittleEndian.PutUint16(rec[0:2], p.PDOIndex)
		binary.LittleEndian.PutUint16(rec[2:4], p.Index)
		rec[4] = p.SubIndex
		rec[5] = p.BitLength
		rec[6] = p.DataType
		binary.LittleEndian.PutUint32(rec[8:12], b.strings[p.Name])
		body.Write(rec)
	}

	stringTableOffset := uint32(headerSize + body.Len())
	binary.LittleEndian.PutUint32(header[24:28], stringTableOffset)
	binary.LittleEndian.PutUint32(header[28:32], uint32(len(b.stringBytes)))

	buf.Write(header)
	buf.Write(body.Bytes())
	buf.Write(b.stringBytes)
	return buf.Bytes()
}

func sampleRegistry(t *testing.T) *Registry {
	t.Helper()
	b := newBlobBuilder()
	b.addVendor(0x1, "Beckhoff")
	b.addVendor(0x2, "Omron")

	b.addDevice(0x1, 0x1000, 1, "EL3204 rev1", []PDOEntry{
		{PDOIndex: 1, Index: 0x6000, SubIndex: 1, BitLength: 16, DataType: DataTypeInt16, Name: "ch1_temp"},
	}, []PDOEntry{
		{PDOIndex: 2, Index: 0x7000, SubIndex: 1, BitLength: 8, DataType: DataTypeUint8, Name: "ctrl"},
	})
	b.addDevice(0x1, 0x1000, 2, "EL3204 rev2", []PDOEntry{
		{PDOIndex: 1, Index: 0x6000, SubIndex: 1, BitLength: 16, DataType: DataTypeInt16, Name: "ch1_temp_v2"},
	}, nil)

	data := b.build()
	reg, err := Parse(data)
	require.NoError(t, err)
	return reg
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse(make([]byte, headerSize))
	assert.Error(t, err)
}

func TestLookupExactRevisionMatch(t *testing.T) {
	reg := sampleRegistry(t)
	dev, err := reg.Lookup(0x1, 0x1000, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), dev.Revision)
	require.Len(t, dev.InputPDOs, 1)
	assert.Equal(t, "ch1_temp_v2", dev.InputPDOs[0].Name)
}

func TestLookupFallsBackToFirstRevision(t *testing.T) {
	reg := sampleRegistry(t)
	dev, err := reg.Lookup(0x1, 0x1000, 99)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), dev.Revision)
}

func TestLookupUnknownDevice(t *testing.T) {
	reg := sampleRegistry(t)
	_, err := reg.Lookup(0x9, 0x9, 0)
	assert.Error(t, err)
}

func TestIsDeviceKnown(t *testing.T) {
	reg := sampleRegistry(t)
	assert.True(t, reg.IsDeviceKnown(0x1, 0x1000))
	assert.False(t, reg.IsDeviceKnown(0x1, 0x2000))
}

func TestVendorName(t *testing.T) {
	reg := sampleRegistry(t)
	name, ok := reg.VendorName(0x2)
	require.True(t, ok)
	assert.Equal(t, "Omron", name)

	_, ok = reg.VendorName(0x99)
	assert.False(t, ok)
}

func TestInputOutputPDOsPartitionCorrectly(t *testing.T) {
	reg := sampleRegistry(t)
	dev, err := reg.Lookup(0x1, 0x1000, 1)
	require.NoError(t, err)
	require.Len(t, dev.InputPDOs, 1)
	require.Len(t, dev.OutputPDOs, 1)
	assert.True(t, dev.InputPDOs[0].IsInput)
	assert.False(t, dev.OutputPDOs[0].IsInput)
}

func TestReadWriteBitsRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, WriteBits(buf, 0, 8, 0xAB))
	v, err := ReadBits(buf, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAB), v)
}

// A 24-bit value at bit offset 2 spans four bytes; the eight bits outside
// it (the low two of byte 0 and the high six of byte 3) must survive
// untouched.
func TestWriteBitsPreservesSurroundingBits(t *testing.T) {
	buf := []byte{0xFF, 0x00, 0x00, 0xFF}
	require.NoError(t, WriteBits(buf, 2, 24, 0x123456))

	v, err := ReadBits(buf, 2, 24)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), v)

	assert.Equal(t, byte(0x03), buf[0]&0x03, "low two bits of byte 0 must be preserved")
	assert.Equal(t, byte(0xF0), buf[3]&0xF0, "high four bits of byte 3 must be preserved")
}

func TestReadWriteBitsRejectsOutOfRange(t *testing.T) {
	buf := make([]byte, 1)
	_, err := ReadBits(buf, 4, 8)
	assert.Error(t, err)
	assert.Error(t, WriteBits(buf, 4, 8, 1))
}

func TestPDOOffsetDecomposesFlatBitOffset(t *testing.T) {
	off := PDOOffset(19)
	assert.Equal(t, 2, off.Byte)
	assert.Equal(t, uint(3), off.Bit)
}
