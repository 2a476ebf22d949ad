// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package access

// BufferAccess is the access state of a buffer between executions.
type BufferAccess uint32

const (
	BufferUndefined BufferAccess = iota
	BufferGeneral
	BufferTransferRead
	BufferTransferWrite
	BufferShaderRead
	BufferShaderWrite
	BufferShaderReadWrite
	BufferGeneralRead
	BufferGeneralWrite
	BufferHostAccess
	BufferIndirectCommandRead
	BufferIndexRead
	BufferVertexAttributeRead
)

var bufferAccessNames = [...]string{
	BufferUndefined:           "Undefined",
	BufferGeneral:             "General",
	BufferTransferRead:        "TransferRead",
	BufferTransferWrite:       "TransferWrite",
	BufferShaderRead:          "ShaderRead",
	BufferShaderWrite:         "ShaderWrite",
	BufferShaderReadWrite:     "ShaderReadWrite",
	BufferGeneralRead:         "GeneralRead",
	BufferGeneralWrite:        "GeneralWrite",
	BufferHostAccess:          "HostAccess",
	BufferIndirectCommandRead: "IndirectCommandRead",
	BufferIndexRead:           "IndexRead",
	BufferVertexAttributeRead: "VertexAttributeRead",
}

func (a BufferAccess) String() string {
	if int(a) < len(bufferAccessNames) {
		return bufferAccessNames[a]
	}
	return "BufferAccess(invalid)"
}

// ImageAccess is the access state of an image between executions. It stands
// for both the image layout and its visibility.
type ImageAccess uint32

const (
	ImageUndefined ImageAccess = iota
	ImageGeneral
	ImageTransferRead
	ImageTransferWrite
	ImageStorageRead
	ImageStorageWrite
	ImageStorageReadWrite
	ImageGeneralRead
	ImageGeneralWrite
	ImageSampledRead
	ImageColorAttachment
	ImageDepthStencilAttachment
	ImagePresent
)

var imageAccessNames = [...]string{
	ImageUndefined:              "Undefined",
	ImageGeneral:                "General",
	ImageTransferRead:           "TransferRead",
	ImageTransferWrite:          "TransferWrite",
	ImageStorageRead:            "StorageRead",
	ImageStorageWrite:           "StorageWrite",
	ImageStorageReadWrite:       "StorageReadWrite",
	ImageGeneralRead:            "GeneralRead",
	ImageGeneralWrite:           "GeneralWrite",
	ImageSampledRead:            "SampledRead",
	ImageColorAttachment:        "ColorAttachment",
	ImageDepthStencilAttachment: "DepthStencilAttachment",
	ImagePresent:                "Present",
}

func (a ImageAccess) String() string {
	if int(a) < len(imageAccessNames) {
		return imageAccessNames[a]
	}
	return "ImageAccess(invalid)"
}
